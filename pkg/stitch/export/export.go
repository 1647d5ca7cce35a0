package export

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
)

// ErrNothingToExport is returned when no completed merge exists.
var ErrNothingToExport = errors.New("nothing to export: merge first")

// Encoder is the slice of the codec collaborator the gate delegates to.
type Encoder interface {
	EncodeFile(ctx context.Context, buf *pcm.Buffer, dst string, format string) error
}

// BinaryResolver locates the encoder binary before export is attempted.
type BinaryResolver interface {
	Resolve() (string, error)
}

// Gate performs the one-shot validation in front of the external encoder:
// a merged buffer must exist and an encoder binary must resolve. Encoder
// failures are surfaced verbatim and never retried, since a partial output
// file may already exist.
type Gate struct {
	enc      Encoder
	resolver BinaryResolver
}

// NewGate returns an export gate. resolver may be nil when the encoder
// handles its own resolution.
func NewGate(enc Encoder, resolver BinaryResolver) *Gate {
	return &Gate{enc: enc, resolver: resolver}
}

// Export validates preconditions and delegates encoding of buf to dst.
// If dst has no extension, the format is appended as one.
func (g *Gate) Export(ctx context.Context, buf *pcm.Buffer, dst string, format string) error {
	if buf == nil {
		return ErrNothingToExport
	}
	if g.resolver != nil {
		if _, err := g.resolver.Resolve(); err != nil {
			return err
		}
	}
	format = strings.ToLower(format)
	if filepath.Ext(dst) == "" {
		dst += "." + format
	}
	return g.enc.EncodeFile(ctx, buf, dst, format)
}
