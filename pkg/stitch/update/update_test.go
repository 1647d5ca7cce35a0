package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"v1.2.3", "1.2.3"},
		{"V2.0", "2.0"},
		{"release-1.4", "1.4"},
		{"1.0 (beta 2)", "1.0.2"},
		{"  v3.1.4  ", "3.1.4"},
		{"nightly", "0.0.0"},
		{"", "0.0.0"},
	}
	for _, tt := range tests {
		if got := NormalizeVersion(tt.in); got != tt.want {
			t.Errorf("NormalizeVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		local, remote string
		want          bool
	}{
		{"1.0", "1.0.1", true},
		{"1.0", "v1.1", true},
		{"1.2.3", "1.2.3", false},
		{"2.0", "1.9.9", false},
		{"1.0", "1.0.0.1", true},
		{"v1.10", "v1.9", false},
		{"1.0", "garbage", false},
		{"garbage", "0.0.1", true},
	}
	for _, tt := range tests {
		if got := IsNewer(tt.local, tt.remote); got != tt.want {
			t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.local, tt.remote, got, tt.want)
		}
	}
}

func TestDue(t *testing.T) {
	c := NewChecker("trackstitch/trackstitch")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if !c.Due(0) {
		t.Error("never-checked should be due")
	}
	if !c.Due(now.Add(-25 * time.Hour).Unix()) {
		t.Error("25h-old check should be due")
	}
	if c.Due(now.Add(-23 * time.Hour).Unix()) {
		t.Error("23h-old check should not be due")
	}
}

func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/trackstitch/trackstitch/releases/latest" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tag_name": "v1.4.0",
			"html_url": "https://example.com/releases/v1.4.0",
			"name": "1.4.0",
			"body": "fixes"
		}`))
	}))
	defer srv.Close()

	c := NewChecker("trackstitch/trackstitch")
	c.baseURL = srv.URL

	rel, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if rel.TagName != "v1.4.0" {
		t.Errorf("TagName = %q, want v1.4.0", rel.TagName)
	}
	if rel.HTMLURL != "https://example.com/releases/v1.4.0" {
		t.Errorf("HTMLURL = %q", rel.HTMLURL)
	}
	if !IsNewer("1.3", rel.TagName) {
		t.Error("1.3 -> v1.4.0 should report newer")
	}
}

func TestLatestNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewChecker("trackstitch/trackstitch")
	c.baseURL = srv.URL

	if _, err := c.Latest(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestLatestRejectsBadSlug(t *testing.T) {
	for _, slug := range []string{"", "noslash"} {
		c := NewChecker(slug)
		if _, err := c.Latest(context.Background()); err == nil {
			t.Errorf("slug %q: expected error", slug)
		}
	}
}
