package format

import (
	"crypto/md5" //nolint:gosec // md5 is part of the on-disk format, not used for security
	"encoding/binary"
	"io"
)

// EntrySize is the encoded size of one FileInfo record.
const EntrySize = 32

// FileInfo is the block header record describing one member.
type FileInfo struct {
	// ID is the caller-assigned global identifier.
	ID uint64

	// Size is the content length in bytes, excluding the sub-header.
	Size uint32

	// Offset is the position of the member's sub-header from the start of the block.
	Offset uint32

	// LocationHash is the MD5 of the member's logical location.
	LocationHash [md5.Size]byte
}

// LocationHash returns the MD5 digest of a logical location string.
func LocationHash(location string) [md5.Size]byte {
	return md5.Sum([]byte(location)) //nolint:gosec // format-defined hash
}

// Encode writes the 32-byte little-endian record to w.
func (fi FileInfo) Encode(w io.Writer) (int, error) {
	var buf [EntrySize]byte
	binary.LittleEndian.PutUint64(buf[0:8], fi.ID)
	binary.LittleEndian.PutUint32(buf[8:12], fi.Size)
	binary.LittleEndian.PutUint32(buf[12:16], fi.Offset)
	copy(buf[16:], fi.LocationHash[:])
	return w.Write(buf[:])
}

// DecodeFileInfo reads one record from r. Field ranges are not validated.
func DecodeFileInfo(r io.Reader) (FileInfo, error) {
	var buf [EntrySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileInfo{}, err
	}
	fi := FileInfo{
		ID:     binary.LittleEndian.Uint64(buf[0:8]),
		Size:   binary.LittleEndian.Uint32(buf[8:12]),
		Offset: binary.LittleEndian.Uint32(buf[12:16]),
	}
	copy(fi.LocationHash[:], buf[16:])
	return fi, nil
}
