package storage

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressedReader streams src through a zstd encoder. The returned reader
// must be closed, which also stops the encoder if the consumer gives up early.
func CompressedReader(src io.Reader) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		enc, err := zstd.NewWriter(pw)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("failed to create zstd encoder: %w", err))
			return
		}
		if _, err := io.Copy(enc, src); err != nil {
			enc.Close()
			pw.CloseWithError(fmt.Errorf("failed to compress: %w", err))
			return
		}
		pw.CloseWithError(enc.Close())
	}()
	return pr
}

// DecompressedReader wraps a zstd stream.
func DecompressedReader(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return dec.IOReadCloser(), nil
}
