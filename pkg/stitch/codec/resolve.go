package codec

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// SupportedSourceExts lists the container formats accepted for decoding.
var SupportedSourceExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
	".m4a":  true,
}

// SupportedSource reports whether path has a decodable audio extension.
func SupportedSource(path string) bool {
	return SupportedSourceExts[strings.ToLower(filepath.Ext(path))]
}

// PromptFunc asks the user for an ffmpeg path. Returning an empty path (or
// an error) means the user declined.
type PromptFunc func() (string, error)

// DefaultFallbackPath returns the last-resort install location checked when
// neither the configured override nor PATH yields an ffmpeg binary.
func DefaultFallbackPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"),
			"Microsoft", "WinGet", "Links", "ffmpeg.exe")
	}
	return "/usr/local/bin/ffmpeg"
}

// Resolver locates the ffmpeg binary. The resolution order is a fixed
// policy: configured override, then PATH, then the fallback install path,
// then the interactive prompt. A path obtained from the prompt is persisted
// so it survives restarts.
type Resolver struct {
	Override string
	Fallback string
	Prompt   PromptFunc
	Persist  func(path string) error

	mu       sync.Mutex
	resolved string
}

// Resolve returns the ffmpeg binary path, caching the first success.
// ErrEncoderUnavailable is returned when every step of the chain fails.
func (r *Resolver) Resolve() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != "" {
		return r.resolved, nil
	}
	if r.Override != "" && isFile(r.Override) {
		r.resolved = r.Override
		return r.resolved, nil
	}
	if found, err := exec.LookPath("ffmpeg"); err == nil {
		r.resolved = found
		return r.resolved, nil
	}
	fallback := r.Fallback
	if fallback == "" {
		fallback = DefaultFallbackPath()
	}
	if isFile(fallback) {
		r.resolved = fallback
		return r.resolved, nil
	}
	if r.Prompt != nil {
		path, err := r.Prompt()
		if err == nil && path != "" && isFile(path) {
			if r.Persist != nil {
				if perr := r.Persist(path); perr != nil {
					return "", perr
				}
			}
			r.Override = path
			r.resolved = path
			return r.resolved, nil
		}
	}
	return "", ErrEncoderUnavailable
}

// SetOverride replaces the configured path and drops the cached resolution.
func (r *Resolver) SetOverride(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Override = path
	r.resolved = ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
