package workspace

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Curve files ending in one of these extensions are compressed.
const (
	ExtZstd = ".zst"
	ExtLZ4  = ".lz4"
)

func compression(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// decompress undoes the compression implied by the extension of path.
func decompress(path string, data []byte) ([]byte, error) {
	switch compression(path) {
	case ExtZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("workspace: zstd decode: %w", err)
		}
		return out, nil
	case ExtLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("workspace: lz4 decode: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

// compress applies the compression implied by the extension of path.
func compress(path string, data []byte) ([]byte, error) {
	switch compression(path) {
	case ExtZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case ExtLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("workspace: lz4 encode: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("workspace: lz4 encode: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}
