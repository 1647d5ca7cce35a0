package codec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
)

// FFmpeg is the external audio-codec collaborator. It shells out to ffmpeg
// for decoding arbitrary containers and MP3 encoding; WAV output is written
// directly. The binary is located lazily through the Resolver so the
// resolution chain (and its interactive fallback) runs at most once.
type FFmpeg struct {
	resolver *Resolver
	tempDir  string
}

// NewFFmpeg returns a codec using the given resolver and temp directory for
// intermediate WAV files.
func NewFFmpeg(resolver *Resolver, tempDir string) *FFmpeg {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpeg{resolver: resolver, tempDir: tempDir}
}

// Decode reads any supported source file into a PCM buffer. When want is
// non-nil the output is converted to that sample rate and channel count so
// it can be appended to an already established canonical buffer. Samples
// are always decoded as 16-bit PCM.
func (c *FFmpeg) Decode(ctx context.Context, path string, want *pcm.Format) (*pcm.Buffer, error) {
	bin, err := c.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(c.tempDir, "stitch-dec-*.wav")
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{"-y", "-v", "error", "-i", path}
	if want != nil {
		args = append(args,
			"-ar", fmt.Sprintf("%d", want.SampleRate),
			"-ac", fmt.Sprintf("%d", want.Channels),
		)
	}
	args = append(args, "-c:a", "pcm_s16le", tmpPath)

	cmd := exec.CommandContext(ctx, bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &DecodeError{
			Path: path,
			Err:  fmt.Errorf("%v (%s)", err, strings.TrimSpace(string(out))),
		}
	}

	buf, err := ReadWAV(tmpPath)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return buf, nil
}

// GenerateSilence produces a silent segment in the given format. No ffmpeg
// round trip is needed; silence is synthesized directly.
func (c *FFmpeg) GenerateSilence(durationMs int64, f pcm.Format) *pcm.Buffer {
	return pcm.Silence(durationMs, f)
}

// EncodeFile writes buf to dst in the requested format ("wav" or "mp3").
// MP3 encoding is delegated to ffmpeg from a temporary WAV; failures carry
// the encoder's message verbatim and are never retried here.
func (c *FFmpeg) EncodeFile(ctx context.Context, buf *pcm.Buffer, dst string, format string) error {
	switch strings.ToLower(format) {
	case "wav":
		return WriteWAV(buf, dst)
	case "mp3":
		return c.encodeMP3(ctx, buf, dst)
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}
}

func (c *FFmpeg) encodeMP3(ctx context.Context, buf *pcm.Buffer, dst string) error {
	bin, err := c.resolver.Resolve()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.tempDir, "stitch-enc-*.wav")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := WriteWAV(buf, tmpPath); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin, "-y", "-v", "error", "-i", tmpPath, dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &EncodeError{Output: strings.TrimSpace(string(out)), Err: err}
	}
	return nil
}

// PreviewPath returns the location of the transient lossless preview
// artifact inside dir.
func PreviewPath(dir string) string {
	return filepath.Join(dir, "trackstitch_preview.wav")
}
