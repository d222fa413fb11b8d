//go:build !unix

package platform

import (
	"fmt"
	"io"
	"math"
	"os"
)

// Map reads size bytes of f into memory. Platforms without mmap support
// get a private copy with the same read-only contract.
func Map(f *os.File, size int64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if size < 0 || size > math.MaxInt {
		return nil, fmt.Errorf("map %s: invalid size %d", f.Name(), size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, size), data); err != nil {
		return nil, fmt.Errorf("map %s: %w", f.Name(), err)
	}
	return data, nil
}

// Unmap releases a mapping returned by Map.
func Unmap([]byte) error {
	return nil
}
