package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CheckInterval is how often the automatic update check is allowed to run.
const CheckInterval = 24 * time.Hour

const userAgent = "trackstitch-updater"

// Release is the subset of the hosting API's latest-release payload the
// checker cares about.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Name    string `json:"name"`
	Body    string `json:"body"`
}

// Checker fetches latest-release metadata for an owner/repo slug from the
// GitHub releases API.
type Checker struct {
	repo    string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewChecker returns a checker for the given "owner/repo" slug.
func NewChecker(repo string) *Checker {
	return &Checker{
		repo:    repo,
		baseURL: "https://api.github.com",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Latest fetches the most recent release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	if c.repo == "" || !strings.Contains(c.repo, "/") {
		return nil, errors.New("invalid repository slug")
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned %s", resp.Status)
	}
	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("parsing release payload: %w", err)
	}
	return &rel, nil
}

// Due reports whether the automatic daily check should run, given the unix
// timestamp of the last completed check (0 for never).
func (c *Checker) Due(lastCheckUnix int64) bool {
	return c.now().Unix()-lastCheckUnix >= int64(CheckInterval.Seconds())
}

var digitRuns = regexp.MustCompile(`\d+`)

// NormalizeVersion reduces a version string to its numeric dot-separated
// core: a leading "v" and any non-numeric components are ignored. Strings
// with no digits normalize to "0.0.0".
func NormalizeVersion(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(text), "v") {
		text = text[1:]
	}
	parts := digitRuns.FindAllString(text, -1)
	if len(parts) == 0 {
		return "0.0.0"
	}
	return strings.Join(parts, ".")
}

// versionTuple parses a normalized version into four components, missing
// ones zero-padded.
func versionTuple(ver string) [4]int {
	var out [4]int
	i := 0
	for _, p := range strings.Split(ver, ".") {
		if i >= len(out) {
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out[i] = n
		i++
	}
	return out
}

// IsNewer reports whether remote describes a strictly newer version than
// local.
func IsNewer(local, remote string) bool {
	lv := versionTuple(NormalizeVersion(local))
	rv := versionTuple(NormalizeVersion(remote))
	for i := range lv {
		if rv[i] != lv[i] {
			return rv[i] > lv[i]
		}
	}
	return false
}
