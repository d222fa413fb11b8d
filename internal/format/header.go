package format

import (
	"encoding/binary"
	"io"

	"github.com/meigma/blocky/internal/blocktype"
	"github.com/meigma/blocky/internal/sizing"
)

// Version1 is the only defined block format version.
const Version1 uint16 = 1

// PrefixSize is the size of the version and entry count fields.
const PrefixSize = 6

// decodeCapHint bounds the initial allocation for untrusted entry counts.
const decodeCapHint = 1 << 12

// Encoder is implemented by every record type of the format.
type Encoder interface {
	Encode(w io.Writer) (int, error)
}

// Interface compliance.
var (
	_ Encoder = FileInfo{}
	_ Encoder = FileHeader{}
	_ Encoder = BlockHeader{}
)

// BlockHeader is the header at the start of every block file.
type BlockHeader struct {
	Version uint16

	// Files is in insertion order; the index is the member's slot.
	Files []FileInfo
}

// HeaderSize returns the encoded size of a header holding n entries.
func HeaderSize(n int) uint64 {
	return PrefixSize + uint64(n)*EntrySize //nolint:gosec // n is a slice length
}

// DataStart returns the page-aligned offset of the first member for n entries.
func DataStart(n int) uint64 {
	return RoundUp(HeaderSize(n), PageSize)
}

// Encode writes the header followed by its entries.
func (h BlockHeader) Encode(w io.Writer) (int, error) {
	count, err := sizing.ToUint32(uint64(len(h.Files)), blocktype.ErrTooManyEntries)
	if err != nil {
		return 0, err
	}
	var prefix [PrefixSize]byte
	binary.LittleEndian.PutUint16(prefix[0:2], h.Version)
	binary.LittleEndian.PutUint32(prefix[2:6], count)
	total, err := w.Write(prefix[:])
	if err != nil {
		return total, err
	}
	for _, fi := range h.Files {
		n, err := fi.Encode(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// DecodeBlockHeader reads a header and exactly entry_count entries from r.
// A stream that ends early yields io.ErrUnexpectedEOF.
func DecodeBlockHeader(r io.Reader) (BlockHeader, error) {
	var prefix [PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return BlockHeader{}, err
	}
	h := BlockHeader{Version: binary.LittleEndian.Uint16(prefix[0:2])}
	count := binary.LittleEndian.Uint32(prefix[2:6])
	h.Files = make([]FileInfo, 0, min(count, decodeCapHint))
	for range count {
		fi, err := DecodeFileInfo(r)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return BlockHeader{}, err
		}
		h.Files = append(h.Files, fi)
	}
	return h, nil
}
