package timeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrIndexOutOfRange is returned for operations addressing a row that does
// not exist.
var ErrIndexOutOfRange = errors.New("timeline index out of range")

// Kind discriminates the two entry variants.
type Kind int

const (
	// KindSource references an audio file on disk.
	KindSource Kind = iota
	// KindSilence is a generated gap of a fixed duration.
	KindSilence
)

// Entry is one unit of the merge recipe: a source clip or a silence gap.
// Entries are immutable once created.
type Entry struct {
	Kind      Kind
	Path      string
	SilenceMs int64
}

// SourceFile returns an entry referencing an audio file.
func SourceFile(path string) Entry {
	return Entry{Kind: KindSource, Path: path}
}

// Silence returns a silence entry. Negative durations clamp to 0.
func Silence(durationMs int64) Entry {
	if durationMs < 0 {
		durationMs = 0
	}
	return Entry{Kind: KindSilence, SilenceMs: durationMs}
}

// IsSilence reports whether the entry is a silence gap.
func (e Entry) IsSilence() bool { return e.Kind == KindSilence }

// DisplayText renders the entry for list views: the base name for files,
// a human duration for silences.
func (e Entry) DisplayText() string {
	if e.Kind == KindSilence {
		return "silence " + formatSeconds(e.SilenceMs)
	}
	return filepath.Base(e.Path)
}

// formatSeconds renders milliseconds as a compact seconds string ("1s",
// "1.5s", "0.25s").
func formatSeconds(ms int64) string {
	if ms%1000 == 0 {
		return fmt.Sprintf("%ds", ms/1000)
	}
	s := fmt.Sprintf("%.2f", float64(ms)/1000.0)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + "s"
}

// Timeline is an ordered, index-addressable sequence of entries. Duplicates
// are allowed and insertion order is the merge/playback order. It is owned
// by a single goroutine; operations never interleave.
type Timeline struct {
	entries []Entry
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{}
}

// Len returns the number of entries.
func (t *Timeline) Len() int { return len(t.entries) }

// At returns the entry at index i.
func (t *Timeline) At(i int) (Entry, error) {
	if i < 0 || i >= len(t.entries) {
		return Entry{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return t.entries[i], nil
}

// Append adds an entry at the end.
func (t *Timeline) Append(e Entry) {
	t.entries = append(t.entries, e)
}

// InsertAfter inserts e directly after row i.
func (t *Timeline) InsertAfter(i int, e Entry) error {
	if i < 0 || i >= len(t.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	t.entries = append(t.entries, Entry{})
	copy(t.entries[i+2:], t.entries[i+1:])
	t.entries[i+1] = e
	return nil
}

// InsertSilenceAfter inserts a silence gap of durationMs after each of the
// given rows in one batch. Rows are processed in descending order so earlier
// insertions do not shift the rows still pending. All rows are validated
// against the pre-insertion length before anything is inserted.
func (t *Timeline) InsertSilenceAfter(rows []int, durationMs int64) error {
	for _, r := range rows {
		if r < 0 || r >= len(t.entries) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, r)
		}
	}
	sorted := make([]int, len(rows))
	copy(sorted, rows)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for _, r := range sorted {
		if err := t.InsertAfter(r, Silence(durationMs)); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAt deletes the entry at row i.
func (t *Timeline) RemoveAt(i int) error {
	if i < 0 || i >= len(t.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return nil
}

// Clear removes all entries.
func (t *Timeline) Clear() {
	t.entries = t.entries[:0]
}

// Snapshot returns a copy of the current entry sequence, suitable for
// handing to a merge job while the timeline keeps changing.
func (t *Timeline) Snapshot() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
