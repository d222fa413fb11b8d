package blockio

import (
	"errors"
	"hash"
	"io"
)

// HashingReader wraps an io.Reader and computes a hash of all data read.
type HashingReader struct {
	r io.Reader
	h hash.Hash
	n uint64
}

// NewHashingReader creates a reader that computes a hash while reading.
func NewHashingReader(r io.Reader, h hash.Hash) *HashingReader {
	return &HashingReader{r: r, h: h}
}

// Read implements io.Reader.
func (hr *HashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		_, _ = hr.h.Write(p[:n]) //nolint:errcheck // hash writes never fail
		hr.n += uint64(n)        //nolint:gosec // n is non-negative
	}
	return n, err
}

// Sum returns the hash sum computed so far.
func (hr *HashingReader) Sum() []byte {
	return hr.h.Sum(nil)
}

// N returns the number of bytes read so far.
func (hr *HashingReader) N() uint64 {
	return hr.n
}

// ErrExtraData indicates a reader produced more bytes than expected.
var ErrExtraData = errors.New("blockio: unexpected extra data")

// EnsureNoExtra reads from r and returns ErrExtraData if any data is available.
func EnsureNoExtra(r io.Reader) error {
	var scratch [1]byte
	n, err := r.Read(scratch[:])
	if n > 0 {
		return ErrExtraData
	}
	if err == io.EOF {
		return nil
	}
	return err
}
