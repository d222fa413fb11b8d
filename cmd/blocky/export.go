package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/blocky"
)

// runExport writes the content of the member with the given id.
func runExport(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	output := fs.String("o", "", "write to `FILE` instead of stdout")
	compress := fs.String("compress", "none", "compress the exported bytes with `CODEC`: none, zstd or lz4")
	verify := fs.Bool("verify", true, "check the content hash before writing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: export requires a block path and a file id", errUsage)
	}
	switch *compress {
	case "none", "zstd", "lz4":
	default:
		return fmt.Errorf("%w: unknown codec %q", errUsage, *compress)
	}
	id, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid file id %q", errUsage, fs.Arg(1))
	}

	b, err := blocky.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer b.Close()

	hdr, content, err := b.FileByID(id)
	if err != nil {
		return fmt.Errorf("export %d: %w", id, err)
	}
	if *verify {
		if err := blocky.CheckContent(hdr, content); err != nil {
			return err
		}
	}

	if *output == "" {
		return writeContent(stdout, content, *compress)
	}
	err = createOutput(*output, func(w io.Writer) error {
		return writeContent(w, content, *compress)
	})
	if err != nil {
		return fmt.Errorf("export %d: %w", id, err)
	}
	return nil
}

// createOutput creates path exclusively and fills it with write.
// The file is removed if write or close fails; an existing file is never touched.
func createOutput(path string, write func(io.Writer) error) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // User-provided path is intentional
	if err != nil {
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
		_ = os.Remove(path) //nolint:errcheck // best-effort cleanup of partial output
	}()

	if err := write(f); err != nil {
		return err
	}
	closed = true
	return f.Close()
}

// writeContent writes content to dst, compressed with codec unless it is "none".
func writeContent(dst io.Writer, content []byte, codec string) error {
	bw := bufio.NewWriter(dst)
	var w io.WriteCloser
	switch codec {
	case "zstd":
		enc, err := zstd.NewWriter(bw, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		w = enc
	case "lz4":
		w = lz4.NewWriter(bw)
	default:
		if _, err := bw.Write(content); err != nil {
			return err
		}
		return bw.Flush()
	}

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return bw.Flush()
}
