package blocky

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // md5 is part of the on-disk format, not used for security
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/meigma/blocky/internal/blockio"
	"github.com/meigma/blocky/internal/format"
	"github.com/meigma/blocky/internal/sizing"
)

// AddFileRequest names one file to pack into a block.
type AddFileRequest struct {
	// ID is the caller-assigned global identifier. Uniqueness is not
	// enforced unless BuildWithUniqueIDs is set.
	ID uint64

	// Path is the source file on the local filesystem. It is opened read-only.
	Path string

	// Location is the logical name stored with the member, e.g. a URL or path.
	Location string
}

const writeBufferSize = 64 << 10

// Build creates a new block file at path from requests and returns it opened.
//
// Members are laid out in request order. Build fails with ErrNoFiles for an
// empty request list, with ErrSourceNotFound (and fs.ErrNotExist) for the
// first source that is not a regular file, and with ErrTargetExists (and
// fs.ErrExist) when path already exists. Existing files are never modified.
//
// Every offset is computed before anything is written; the file is then
// written in one forward pass. If the build fails after the target was
// created, the partial file is removed.
//
// The context is checked between members.
func Build(ctx context.Context, path string, requests []AddFileRequest, opts ...BuildOption) (*Block, error) {
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &builder{cfg: cfg, logger: cfg.logger, total: len(requests)}

	if err := w.checkRequests(requests); err != nil {
		return nil, err
	}
	_, statErr := os.Lstat(path)
	switch {
	case statErr == nil:
		return nil, targetExistsError(path)
	case !errors.Is(statErr, fs.ErrNotExist):
		return nil, statErr
	}

	w.log().Info("building block", "path", path, "files", len(requests))

	members, err := w.hashSources(ctx, requests)
	if err != nil {
		return nil, err
	}
	layout, err := format.Plan(members)
	if err != nil {
		return nil, err
	}
	if err := w.writeBlock(ctx, path, requests, &layout); err != nil {
		return nil, err
	}

	w.reportProgress(StageOpening, "", layout.End, layout.End, len(requests))
	openOpts := cfg.openOpts
	if cfg.logger != nil {
		openOpts = append([]Option{WithLogger(cfg.logger)}, openOpts...)
	}
	b, err := Open(path, openOpts...)
	if err != nil {
		_ = os.Remove(path) //nolint:errcheck // best-effort cleanup of an unreadable block
		return nil, fmt.Errorf("reopen block: %w", err)
	}
	w.log().Info("block built", "path", path, "files", b.Len(), "size", b.Size())
	return b, nil
}

func targetExistsError(path string) error {
	return &fs.PathError{Op: "build", Path: path, Err: fmt.Errorf("%w: %w", ErrTargetExists, fs.ErrExist)}
}

func sourceNotFoundError(path string) error {
	return &fs.PathError{Op: "build", Path: path, Err: fmt.Errorf("%w: %w", ErrSourceNotFound, fs.ErrNotExist)}
}

// builder holds state for block creation.
type builder struct {
	cfg    buildConfig
	logger *slog.Logger
	total  int

	// sourceBytes is the combined size of all sources when they were checked.
	sourceBytes uint64
}

// log returns the logger, falling back to a discard logger if nil.
func (w *builder) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// reportProgress sends a progress event if a callback is configured.
func (w *builder) reportProgress(stage ProgressStage, location string, bytesDone, bytesTotal uint64, filesDone int) {
	if w.cfg.progress == nil {
		return
	}
	w.cfg.progress(ProgressEvent{
		Stage:      stage,
		Location:   location,
		BytesDone:  bytesDone,
		BytesTotal: bytesTotal,
		FilesDone:  filesDone,
		FilesTotal: w.total,
	})
}

// checkRequests validates the request list before any file is created.
func (w *builder) checkRequests(requests []AddFileRequest) error {
	if len(requests) == 0 {
		return ErrNoFiles
	}
	maxFiles := w.cfg.maxFiles
	if maxFiles == 0 {
		maxFiles = DefaultMaxFiles
	}
	if maxFiles > 0 && len(requests) > maxFiles {
		return fmt.Errorf("%w: %d files, limit %d", ErrTooManyEntries, len(requests), maxFiles)
	}

	var seen map[uint64]int
	if w.cfg.uniqueIDs {
		seen = make(map[uint64]int, len(requests))
	}
	for i, req := range requests {
		info, err := os.Stat(req.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return sourceNotFoundError(req.Path)
			}
			return err
		}
		if !info.Mode().IsRegular() {
			return sourceNotFoundError(req.Path)
		}
		w.sourceBytes += uint64(info.Size()) //nolint:gosec // regular file sizes are non-negative
		if seen != nil {
			if prev, ok := seen[req.ID]; ok {
				return fmt.Errorf("%w: id %d used by requests %d and %d", ErrDuplicateID, req.ID, prev, i)
			}
			seen[req.ID] = i
		}
	}
	return nil
}

// hashSources is the read-only first pass: it records each source's size
// and content hash so the whole layout can be planned up front.
func (w *builder) hashSources(ctx context.Context, requests []AddFileRequest) ([]format.Member, error) {
	members := make([]format.Member, len(requests))
	buf := make([]byte, 32*1024)
	var done uint64
	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size, sum, err := hashFile(req.Path, buf)
		if err != nil {
			return nil, err
		}
		members[i] = format.Member{
			ID:       req.ID,
			Size:     size,
			Location: req.Location,
			Hash:     sum,
		}
		done += size
		w.reportProgress(StageHashing, req.Location, done, max(done, w.sourceBytes), i+1)
	}
	return members, nil
}

func hashFile(path string, buf []byte) (uint64, [md5.Size]byte, error) {
	var sum [md5.Size]byte
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, sum, sourceNotFoundError(path)
		}
		return 0, sum, err
	}
	defer f.Close()

	hr := blockio.NewHashingReader(f, md5.New()) //nolint:gosec // format-defined hash
	if _, err := io.CopyBuffer(io.Discard, hr, buf); err != nil {
		return 0, sum, fmt.Errorf("hash %s: %w", path, err)
	}
	copy(sum[:], hr.Sum())
	return hr.N(), sum, nil
}

// writeBlock is the write pass. It creates path exclusively and emits the
// header, then each member's padding, sub-header and content in order.
func (w *builder) writeBlock(ctx context.Context, path string, requests []AddFileRequest, layout *format.Layout) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // User-provided path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return targetExistsError(path)
		}
		return err
	}
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = f.Close() //nolint:errcheck // already failing
		}
		if rmErr := os.Remove(path); rmErr != nil {
			w.log().Warn("failed to remove partial block", "path", path, "error", rmErr)
		}
	}()

	bw := bufio.NewWriterSize(f, writeBufferSize)
	cw := &blockio.CountingWriter{W: bw}
	if _, err := layout.Header.Encode(cw); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	buf := make([]byte, 32*1024)
	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			return err
		}
		fi := layout.Header.Files[i]
		sub := layout.SubHeaders[i]
		if err := cw.PadTo(uint64(fi.Offset)); err != nil {
			return fmt.Errorf("pad member %d: %w", i, err)
		}
		if _, err := sub.Encode(cw); err != nil {
			return fmt.Errorf("write sub-header %d: %w", i, err)
		}
		if err := copyContent(cw, req.Path, uint64(fi.Size), sub.Hash, buf); err != nil {
			return err
		}
		w.reportProgress(StageWriting, req.Location, cw.N, layout.End, i+1)
	}

	if cw.N != layout.End {
		return fmt.Errorf("block size mismatch: wrote %d bytes, planned %d", cw.N, layout.End)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush block: %w", err)
	}
	if w.cfg.sync {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync block: %w", err)
		}
	}
	closed = true
	if err := f.Close(); err != nil {
		return fmt.Errorf("close block: %w", err)
	}
	w.log().Debug("block written", "path", path, "size", cw.N)
	return nil
}

// copyContent streams exactly size bytes of the source into dst and checks
// that the source still matches what the first pass recorded.
func copyContent(dst io.Writer, path string, size uint64, want [md5.Size]byte, buf []byte) error {
	src, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrSourceChanged, sourceNotFoundError(path))
		}
		return err
	}
	defer src.Close()

	limit, err := sizing.ToInt64(size, ErrSizeOverflow)
	if err != nil {
		return err
	}
	hr := blockio.NewHashingReader(src, md5.New()) //nolint:gosec // format-defined hash
	n, err := io.CopyBuffer(dst, io.LimitReader(hr, limit), buf)
	if err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	if n != limit {
		return fmt.Errorf("%w: %s: read %d of %d bytes", ErrSourceChanged, path, n, limit)
	}
	if err := blockio.EnsureNoExtra(src); err != nil {
		if errors.Is(err, blockio.ErrExtraData) {
			return fmt.Errorf("%w: %s grew", ErrSourceChanged, path)
		}
		return fmt.Errorf("copy %s: %w", path, err)
	}
	if !bytes.Equal(hr.Sum(), want[:]) {
		return fmt.Errorf("%w: %s: content hash differs", ErrSourceChanged, path)
	}
	return nil
}
