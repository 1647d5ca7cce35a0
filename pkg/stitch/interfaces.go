package stitch

import (
	"context"

	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
)

// Codec is the external audio-codec collaborator: container decoding,
// silence generation and encoding.
type Codec interface {
	Decode(ctx context.Context, path string, want *pcm.Format) (*pcm.Buffer, error)
	GenerateSilence(durationMs int64, f pcm.Format) *pcm.Buffer
	EncodeFile(ctx context.Context, buf *pcm.Buffer, dst string, format string) error
}

// Settings is the persisted settings collaborator.
type Settings interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	GetInt64(key string) (int64, error)
	SetInt64(key string, value int64) error
	Close() error
}

// Logger is the narrow logging surface the service accepts. Satisfied by
// *zap.SugaredLogger.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
