package main

import (
	"context"
	"fmt"
	"io"

	"github.com/meigma/blocky"
)

// runCreate builds a block from the input files. Ids are assigned
// sequentially from 1 in argument order.
func runCreate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("create", stderr)
	root := fs.String("root", "", "store locations relative to `DIR` instead of the input paths")
	sync := fs.Bool("sync", false, "fsync the block before closing it")
	debug := fs.Bool("debug", false, "log build progress to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%w: create requires a block path and at least one input", errUsage)
	}
	blockPath := fs.Arg(0)
	inputs := fs.Args()[1:]

	requests := make([]blocky.AddFileRequest, len(inputs))
	for i, input := range inputs {
		location, err := memberLocation(input, *root)
		if err != nil {
			return err
		}
		requests[i] = blocky.AddFileRequest{
			ID:       uint64(i) + 1, //nolint:gosec // i is a slice index
			Path:     input,
			Location: location,
		}
	}

	logger := newLogger(stderr, *debug)
	b, err := blocky.Build(ctx, blockPath, requests,
		blocky.BuildWithLogger(logger),
		blocky.BuildWithSync(*sync),
		blocky.BuildWithProgress(func(ev blocky.ProgressEvent) {
			logger.Debug(ev.Stage.String(), "location", ev.Location, "files", ev.FilesDone, "of", ev.FilesTotal)
		}),
	)
	if err != nil {
		return fmt.Errorf("unable to create block: %w", err)
	}
	defer b.Close()

	_, err = fmt.Fprintf(stdout, "%s: %d files, %d bytes\n", blockPath, b.Len(), b.Size())
	return err
}
