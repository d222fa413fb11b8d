package blocky

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // md5 is part of the on-disk format, not used for security
	_ "crypto/sha256" // registers digest.Canonical
	"encoding/binary"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/blocky/internal/format"
	"github.com/meigma/blocky/internal/platform"
)

// Block provides random access to the members of a block file.
//
// The whole file is mapped read-only on Open. Byte slices returned by
// FileAt and the lookup helpers alias that mapping: they must not be
// modified and must not be used after Close.
//
// A Block is safe for concurrent reads. Close must not run concurrently
// with any other method.
type Block struct {
	path   string
	header format.BlockHeader
	data   []byte
	size   int64
	closed bool

	verifyConcurrency int
	logger            *slog.Logger

	digestOnce sync.Once
	digest     digest.Digest
}

// log returns the logger, falling back to a discard logger if nil.
func (b *Block) log() *slog.Logger {
	if b.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.logger
}

// Open maps the block file at path and decodes its header.
//
// A header that cannot be decoded fails with ErrBlockCorrupted; a version
// other than Version1 additionally matches ErrUnsupportedVersion.
// The returned Block must be closed to release the mapping.
func Open(path string, opts ...Option) (*Block, error) {
	b := &Block{
		path:              path,
		verifyConcurrency: defaultVerifyConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}

	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat block: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("%w: not a regular file", ErrBlockCorrupted)}
	}
	if info.Size() < format.PrefixSize {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("%w: %d bytes is shorter than the header", ErrBlockCorrupted, info.Size())}
	}

	data, err := platform.Map(f, info.Size())
	if err != nil {
		return nil, err
	}

	header, err := decodeHeader(data)
	if err != nil {
		_ = platform.Unmap(data) //nolint:errcheck // already failing
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}

	b.header = header
	b.data = data
	b.size = info.Size()
	b.log().Debug("opened block", "path", path, "entries", len(header.Files), "size", b.size)
	return b, nil
}

// decodeHeader decodes and sanity checks the header at the start of data.
func decodeHeader(data []byte) (format.BlockHeader, error) {
	count := binary.LittleEndian.Uint32(data[2:format.PrefixSize])
	need := format.PrefixSize + uint64(count)*format.EntrySize
	if need > uint64(len(data)) {
		return format.BlockHeader{}, fmt.Errorf("%w: %d entries need %d bytes, block has %d", ErrBlockCorrupted, count, need, len(data))
	}

	header, err := format.DecodeBlockHeader(bytes.NewReader(data))
	if err != nil {
		return format.BlockHeader{}, fmt.Errorf("%w: %v", ErrBlockCorrupted, err)
	}
	if header.Version != format.Version1 {
		return format.BlockHeader{}, fmt.Errorf("%w: %w: %d", ErrBlockCorrupted, ErrUnsupportedVersion, header.Version)
	}
	return header, nil
}

// Close releases the mapping. It is safe to call Close more than once.
func (b *Block) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	data := b.data
	b.data = nil
	return platform.Unmap(data)
}

// Path returns the path the block was opened from.
func (b *Block) Path() string {
	return b.path
}

// Size returns the size of the block file in bytes.
func (b *Block) Size() int64 {
	return b.size
}

// Version returns the format version recorded in the header.
func (b *Block) Version() uint16 {
	return b.header.Version
}

// Len returns the number of members.
func (b *Block) Len() int {
	return len(b.header.Files)
}

// Entries returns an iterator over the header entries in insertion order.
// The iterator may be ranged over any number of times.
func (b *Block) Entries() iter.Seq[FileInfo] {
	return func(yield func(FileInfo) bool) {
		for _, fi := range b.header.Files {
			if !yield(fi) {
				return
			}
		}
	}
}

// Entry returns the header entry at index i.
func (b *Block) Entry(i int) (FileInfo, error) {
	if i < 0 || i >= len(b.header.Files) {
		return FileInfo{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(b.header.Files))
	}
	return b.header.Files[i], nil
}

// FileAt returns the sub-header and content of the member at index i.
//
// The content slice is a view into the mapping of exactly FileInfo.Size
// bytes. A sub-header that cannot be decoded fails with ErrHeaderCorrupted;
// other members stay readable.
func (b *Block) FileAt(i int) (FileHeader, []byte, error) {
	if b.closed {
		return FileHeader{}, nil, ErrClosed
	}
	fi, err := b.Entry(i)
	if err != nil {
		return FileHeader{}, nil, err
	}
	return b.member(i, fi)
}

func (b *Block) member(i int, fi FileInfo) (FileHeader, []byte, error) {
	off := uint64(fi.Offset)
	if off >= uint64(len(b.data)) {
		return FileHeader{}, nil, fmt.Errorf("member %d: %w: offset %d beyond block size %d", i, ErrHeaderCorrupted, off, len(b.data))
	}
	hdr, n, err := format.DecodeFileHeaderBytes(b.data[off:])
	if err != nil {
		return FileHeader{}, nil, fmt.Errorf("member %d: %w: %v", i, ErrHeaderCorrupted, err)
	}

	start := off + uint64(n) //nolint:gosec // n is non-negative
	end := start + uint64(fi.Size)
	if end > uint64(len(b.data)) {
		return FileHeader{}, nil, fmt.Errorf("member %d: %w: content [%d, %d) exceeds block size %d", i, ErrBlockCorrupted, start, end, len(b.data))
	}
	return hdr, b.data[start:end:end], nil
}

// FileByID returns the first member whose id equals id.
func (b *Block) FileByID(id uint64) (FileHeader, []byte, error) {
	if b.closed {
		return FileHeader{}, nil, ErrClosed
	}
	for i, fi := range b.header.Files {
		if fi.ID == id {
			return b.member(i, fi)
		}
	}
	return FileHeader{}, nil, fmt.Errorf("%w: id %d", ErrFileNotFound, id)
}

// FileByLocation returns the first member stored under location.
//
// Candidates are selected by location hash and confirmed against the
// location recorded in their sub-header. An unreadable candidate is skipped;
// its error is returned only if no other member matches.
func (b *Block) FileByLocation(location string) (FileHeader, []byte, error) {
	if b.closed {
		return FileHeader{}, nil, ErrClosed
	}
	want := format.LocationHash(location)
	var firstErr error
	for i, fi := range b.header.Files {
		if fi.LocationHash != want {
			continue
		}
		hdr, content, err := b.member(i, fi)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if hdr.Location == location {
			return hdr, content, nil
		}
	}
	if firstErr != nil {
		return FileHeader{}, nil, firstErr
	}
	return FileHeader{}, nil, fmt.Errorf("%w: location %q", ErrFileNotFound, location)
}

// Verify recomputes the content hash of member i and compares it with the
// hash stored in its sub-header.
func (b *Block) Verify(i int) error {
	hdr, content, err := b.FileAt(i)
	if err != nil {
		return err
	}
	if err := CheckContent(hdr, content); err != nil {
		return fmt.Errorf("member %d: %w", i, err)
	}
	return nil
}

// CheckContent reports ErrHashMismatch when content does not hash to h.Hash.
func CheckContent(h FileHeader, content []byte) error {
	if md5.Sum(content) != h.Hash { //nolint:gosec // format-defined hash
		return fmt.Errorf("%s: %w", h.Location, ErrHashMismatch)
	}
	return nil
}

// VerifyAll verifies every member, hashing up to the configured number of
// members concurrently. It returns the first failure.
func (b *Block) VerifyAll(ctx context.Context) error {
	if b.closed {
		return ErrClosed
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.verifyConcurrency)
	for i := range b.Len() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return b.Verify(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	b.log().Debug("verified block", "path", b.path, "entries", b.Len())
	return ctx.Err()
}

// Digest returns the sha256 digest of the whole block file.
// It is computed on first use and cached.
func (b *Block) Digest() (digest.Digest, error) {
	if b.closed {
		return "", ErrClosed
	}
	b.digestOnce.Do(func() {
		b.digest = digest.FromBytes(b.data)
	})
	return b.digest, nil
}
