// Package blockio holds the small io adapters used while writing and verifying blocks.
package blockio

import (
	"errors"
	"io"

	"github.com/meigma/blocky/internal/sizing"
)

// ErrOverflow indicates a counter exceeded its maximum value.
var ErrOverflow = errors.New("counter overflow")

// CountingWriter wraps a writer and counts bytes written.
type CountingWriter struct {
	W io.Writer
	N uint64
}

// Write implements io.Writer.
func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	if n > 0 {
		total, ok := sizing.AddUint64(cw.N, uint64(n)) //nolint:gosec // n is non-negative per io.Writer
		if !ok {
			return n, ErrOverflow
		}
		cw.N = total
	}
	return n, err
}

// PadTo writes zero bytes until the writer has emitted exactly target bytes.
// It fails if more than target bytes were already written.
func (cw *CountingWriter) PadTo(target uint64) error {
	if cw.N > target {
		return errors.New("blockio: pad target behind current position")
	}
	var zeros [512]byte
	for cw.N < target {
		chunk := min(target-cw.N, uint64(len(zeros)))
		if _, err := cw.Write(zeros[:chunk]); err != nil {
			return err
		}
	}
	return nil
}
