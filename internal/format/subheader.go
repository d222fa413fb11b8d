package format

import (
	"crypto/md5" //nolint:gosec // md5 is part of the on-disk format, not used for security
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/meigma/blocky/internal/blocktype"
)

// MaxLocationLen is the longest location the 16-bit length prefix can describe.
const MaxLocationLen = math.MaxUint16

const fileHeaderFixedSize = md5.Size + 2

// FileHeader is the sub-header written inline before each member's content.
type FileHeader struct {
	// Hash is the MD5 of the member's content.
	Hash [md5.Size]byte

	// Location is the member's original logical location.
	Location string
}

// Size returns the encoded length of the sub-header.
func (h FileHeader) Size() int {
	return fileHeaderFixedSize + len(h.Location)
}

// Encode writes the sub-header to w.
func (h FileHeader) Encode(w io.Writer) (int, error) {
	if len(h.Location) > MaxLocationLen {
		return 0, fmt.Errorf("%w: %d bytes", blocktype.ErrLocationTooLong, len(h.Location))
	}
	buf := make([]byte, h.Size())
	copy(buf, h.Hash[:])
	binary.LittleEndian.PutUint16(buf[md5.Size:fileHeaderFixedSize], uint16(len(h.Location))) //nolint:gosec // bounded above
	copy(buf[fileHeaderFixedSize:], h.Location)
	return w.Write(buf)
}

// DecodeFileHeader reads a sub-header from r.
func DecodeFileHeader(r io.Reader) (FileHeader, error) {
	var fixed [fileHeaderFixedSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return FileHeader{}, err
	}
	location := make([]byte, binary.LittleEndian.Uint16(fixed[md5.Size:]))
	if _, err := io.ReadFull(r, location); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return FileHeader{}, err
	}
	if !utf8.Valid(location) {
		return FileHeader{}, blocktype.ErrInvalidLocation
	}
	h := FileHeader{Location: string(location)}
	copy(h.Hash[:], fixed[:md5.Size])
	return h, nil
}

// DecodeFileHeaderBytes decodes a sub-header from the start of b and returns
// it together with the number of bytes it occupies.
func DecodeFileHeaderBytes(b []byte) (FileHeader, int, error) {
	if len(b) < fileHeaderFixedSize {
		return FileHeader{}, 0, io.ErrUnexpectedEOF
	}
	end := fileHeaderFixedSize + int(binary.LittleEndian.Uint16(b[md5.Size:fileHeaderFixedSize]))
	if len(b) < end {
		return FileHeader{}, 0, io.ErrUnexpectedEOF
	}
	location := b[fileHeaderFixedSize:end]
	if !utf8.Valid(location) {
		return FileHeader{}, 0, blocktype.ErrInvalidLocation
	}
	h := FileHeader{Location: string(location)}
	copy(h.Hash[:], b[:md5.Size])
	return h, end, nil
}
