package export

import (
	"context"
	"errors"
	"testing"

	"github.com/trackstitch/trackstitch/pkg/stitch/codec"
	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
)

type fakeEncoder struct {
	dst    string
	format string
	calls  int
	err    error
}

func (e *fakeEncoder) EncodeFile(ctx context.Context, buf *pcm.Buffer, dst string, format string) error {
	e.calls++
	e.dst = dst
	e.format = format
	return e.err
}

type stubResolver struct {
	path string
	err  error
}

func (r stubResolver) Resolve() (string, error) { return r.path, r.err }

func testBuffer() *pcm.Buffer {
	return pcm.Silence(500, pcm.DefaultFormat)
}

func TestExportWithoutMerge(t *testing.T) {
	enc := &fakeEncoder{}
	g := NewGate(enc, stubResolver{path: "/usr/bin/ffmpeg"})

	err := g.Export(context.Background(), nil, "/tmp/out.mp3", "mp3")
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("error = %v, want ErrNothingToExport", err)
	}
	if enc.calls != 0 {
		t.Error("encoder invoked despite missing merge")
	}
}

func TestExportResolverFailureBlocksEncode(t *testing.T) {
	enc := &fakeEncoder{}
	g := NewGate(enc, stubResolver{err: codec.ErrEncoderUnavailable})

	err := g.Export(context.Background(), testBuffer(), "/tmp/out.mp3", "mp3")
	if !errors.Is(err, codec.ErrEncoderUnavailable) {
		t.Fatalf("error = %v, want ErrEncoderUnavailable", err)
	}
	if enc.calls != 0 {
		t.Error("encoder invoked despite unresolved binary")
	}
}

func TestExportAppendsExtension(t *testing.T) {
	tests := []struct {
		name    string
		dst     string
		format  string
		wantDst string
	}{
		{"bare name gains extension", "/tmp/out", "mp3", "/tmp/out.mp3"},
		{"existing extension kept", "/tmp/out.wav", "wav", "/tmp/out.wav"},
		{"format lowercased", "/tmp/out", "MP3", "/tmp/out.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &fakeEncoder{}
			g := NewGate(enc, stubResolver{path: "/usr/bin/ffmpeg"})

			if err := g.Export(context.Background(), testBuffer(), tt.dst, tt.format); err != nil {
				t.Fatalf("Export: %v", err)
			}
			if enc.calls != 1 {
				t.Fatalf("encoder calls = %d, want 1", enc.calls)
			}
			if enc.dst != tt.wantDst {
				t.Errorf("dst = %q, want %q", enc.dst, tt.wantDst)
			}
		})
	}
}

func TestExportEncoderErrorSurfacesVerbatim(t *testing.T) {
	encodeErr := &codec.EncodeError{Output: "/tmp/out.mp3", Err: errors.New("disk full")}
	enc := &fakeEncoder{err: encodeErr}
	g := NewGate(enc, stubResolver{path: "/usr/bin/ffmpeg"})

	err := g.Export(context.Background(), testBuffer(), "/tmp/out.mp3", "mp3")
	var ee *codec.EncodeError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want *codec.EncodeError", err)
	}
	if enc.calls != 1 {
		t.Errorf("encoder calls = %d, want exactly 1 (no retry)", enc.calls)
	}
}

func TestExportNilResolver(t *testing.T) {
	enc := &fakeEncoder{}
	g := NewGate(enc, nil)

	if err := g.Export(context.Background(), testBuffer(), "/tmp/out.wav", "wav"); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if enc.calls != 1 {
		t.Errorf("encoder calls = %d, want 1", enc.calls)
	}
}
