package codec

import (
	"errors"
	"fmt"
)

// ErrEncoderUnavailable means no usable ffmpeg binary could be resolved and
// the user declined to supply one.
var ErrEncoderUnavailable = errors.New("no usable ffmpeg binary found")

// DecodeError wraps a failure to decode a source file. A decode failure
// aborts the whole merge job.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError wraps a failure reported by the encoder itself. Output carries
// the tool's message verbatim; encoding is never retried automatically.
type EncodeError struct {
	Output string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("encoder failed: %v (%s)", e.Err, e.Output)
	}
	return fmt.Sprintf("encoder failed: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
