package format

import (
	"crypto/md5" //nolint:gosec // md5 is part of the on-disk format, not used for security
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/meigma/blocky/internal/blocktype"
	"github.com/meigma/blocky/internal/sizing"
)

// Member describes one file to place in a block.
type Member struct {
	ID       uint64
	Size     uint64
	Location string

	// Hash is the MD5 of the content, stored in the sub-header.
	Hash [md5.Size]byte
}

// Layout is the complete physical plan of a block, computed before any byte is written.
type Layout struct {
	Header     BlockHeader
	SubHeaders []FileHeader

	// End is the total size of the block file.
	End uint64
}

// Plan assigns every member a page-aligned offset after the header region.
//
// Offsets are assigned in member order; each member occupies its sub-header
// followed by its content, and the next member starts at the following page
// boundary.
func Plan(members []Member) (Layout, error) {
	if len(members) == 0 {
		return Layout{}, blocktype.ErrNoFiles
	}
	if uint64(len(members)) > math.MaxUint32 {
		return Layout{}, blocktype.ErrTooManyEntries
	}

	files := make([]FileInfo, len(members))
	subs := make([]FileHeader, len(members))
	offset := DataStart(len(members))
	var end uint64
	for i, m := range members {
		if len(m.Location) > MaxLocationLen {
			return Layout{}, fmt.Errorf("member %d: %w: %d bytes", i, blocktype.ErrLocationTooLong, len(m.Location))
		}
		if !utf8.ValidString(m.Location) {
			return Layout{}, fmt.Errorf("member %d: %w", i, blocktype.ErrInvalidLocation)
		}
		size, err := sizing.ToUint32(m.Size, blocktype.ErrSizeOverflow)
		if err != nil {
			return Layout{}, fmt.Errorf("member %d: %w: %d bytes", i, err, m.Size)
		}
		off, err := sizing.ToUint32(offset, blocktype.ErrSizeOverflow)
		if err != nil {
			return Layout{}, fmt.Errorf("member %d: %w: offset %d", i, err, offset)
		}

		subs[i] = FileHeader{Hash: m.Hash, Location: m.Location}
		files[i] = FileInfo{
			ID:           m.ID,
			Size:         size,
			Offset:       off,
			LocationHash: LocationHash(m.Location),
		}

		// offset and size both fit in 32 bits, so this cannot overflow.
		end = offset + uint64(subs[i].Size()) + m.Size //nolint:gosec // Size is non-negative
		offset = RoundUp(end, PageSize)
	}

	return Layout{
		Header:     BlockHeader{Version: Version1, Files: files},
		SubHeaders: subs,
		End:        end,
	}, nil
}
