package codec

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
)

// ReadWAV decodes a WAV file into a PCM buffer.
func ReadWAV(path string) (*pcm.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading samples from %s: %w", path, err)
	}

	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth != 0 {
		bitDepth = buf.SourceBitDepth
	}
	return &pcm.Buffer{
		Format: pcm.Format{
			SampleRate: buf.Format.SampleRate,
			Channels:   buf.Format.NumChannels,
			BitDepth:   bitDepth,
		},
		Data: buf.Data,
	}, nil
}

// WriteWAV writes a PCM buffer to path as a standard PCM WAV file.
func WriteWAV(buf *pcm.Buffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f,
		buf.Format.SampleRate,
		buf.Format.BitDepth,
		buf.Format.Channels,
		1, // PCM
	)
	if err := enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.Format.Channels,
			SampleRate:  buf.Format.SampleRate,
		},
		Data:           buf.Data,
		SourceBitDepth: buf.Format.BitDepth,
	}); err != nil {
		f.Close()
		return fmt.Errorf("writing samples to %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return f.Close()
}
