package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"

	"github.com/meigma/blocky"
)

type inspectConfig struct {
	verbose bool
	verify  bool
	format  string
}

// blockReport is the structured form of one inspected block.
type blockReport struct {
	Path    string       `json:"path" yaml:"path"`
	Version uint16       `json:"version" yaml:"version"`
	Size    int64        `json:"size" yaml:"size"`
	Digest  string       `json:"digest" yaml:"digest"`
	Files   []fileReport `json:"files" yaml:"files"`

	// Verified is set only when verification was requested.
	Verified    *bool  `json:"verified,omitempty" yaml:"verified,omitempty"`
	VerifyError string `json:"verify_error,omitempty" yaml:"verify_error,omitempty"`
}

type fileReport struct {
	ID           uint64 `json:"id" yaml:"id"`
	Size         uint32 `json:"size" yaml:"size"`
	Offset       uint32 `json:"offset" yaml:"offset"`
	LocationHash string `json:"location_hash" yaml:"location_hash"`
	ContentHash  string `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	Location     string `json:"location,omitempty" yaml:"location,omitempty"`
}

// runInspect prints the header entries of each block.
func runInspect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", stderr)
	var cfg inspectConfig
	fs.BoolVar(&cfg.verbose, "v", false, "report content hash and location of each file")
	fs.BoolVar(&cfg.verify, "verify", false, "verify the content hash of every file")
	fs.StringVar(&cfg.format, "format", "text", "output `FORMAT`: text, json or yaml")
	noColor := fs.Bool("no-color", false, "disable colored output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: inspect requires at least one block path", errUsage)
	}
	switch cfg.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, cfg.format)
	}
	if *noColor {
		color.NoColor = true
	}

	reports := make([]blockReport, 0, fs.NArg())
	var verifyErr error
	for _, path := range fs.Args() {
		report, err := inspectBlock(ctx, path, &cfg)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		if report.Verified != nil && !*report.Verified && verifyErr == nil {
			verifyErr = fmt.Errorf("verify %s: %s", path, report.VerifyError)
		}
	}

	out := bufio.NewWriter(stdout)
	var err error
	switch cfg.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(reports)
	case "yaml":
		var data []byte
		if data, err = yaml.Marshal(reports); err == nil {
			_, err = out.Write(data)
		}
	default:
		for _, report := range reports {
			printReport(out, &report, cfg.verbose)
		}
	}
	if err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	return verifyErr
}

// inspectBlock opens path and collects its entries. With verbose set each
// member's sub-header is decoded as well.
func inspectBlock(ctx context.Context, path string, cfg *inspectConfig) (blockReport, error) {
	b, err := blocky.Open(path)
	if err != nil {
		return blockReport{}, fmt.Errorf("fail to open block %s: %w", path, err)
	}
	defer b.Close()

	dgst, err := b.Digest()
	if err != nil {
		return blockReport{}, err
	}
	report := blockReport{
		Path:    path,
		Version: b.Version(),
		Size:    b.Size(),
		Digest:  dgst.String(),
		Files:   make([]fileReport, 0, b.Len()),
	}

	idx := 0
	for fi := range b.Entries() {
		fr := fileReport{
			ID:           fi.ID,
			Size:         fi.Size,
			Offset:       fi.Offset,
			LocationHash: hex.EncodeToString(fi.LocationHash[:]),
		}
		if cfg.verbose {
			hdr, _, err := b.FileAt(idx)
			if err != nil {
				return blockReport{}, fmt.Errorf("unable to read file %d from the block: %w", idx, err)
			}
			fr.ContentHash = hex.EncodeToString(hdr.Hash[:])
			fr.Location = hdr.Location
		}
		report.Files = append(report.Files, fr)
		idx++
	}

	if cfg.verify {
		ok := true
		if err := b.VerifyAll(ctx); err != nil {
			ok = false
			report.VerifyError = err.Error()
		}
		report.Verified = &ok
	}
	return report, nil
}

func printReport(out io.Writer, report *blockReport, verbose bool) {
	bold := color.New(color.Bold)
	bold.Fprintln(out, report.Path) //nolint:errcheck // write errors surface on Flush
	fmt.Fprintf(out, "version %d, %d files, %d bytes, %s\n", report.Version, len(report.Files), report.Size, report.Digest)

	if verbose {
		bold.Fprintf(out, "%9s %9s %9s %32s %32s %s\n", "ID", "SIZE", "OFFSET", "LOCATION HASH", "CONTENT HASH", "LOCATION") //nolint:errcheck // see above
	} else {
		bold.Fprintf(out, "%9s %9s %9s %32s\n", "ID", "SIZE", "OFFSET", "LOCATION HASH") //nolint:errcheck // see above
	}
	for _, fr := range report.Files {
		if verbose {
			fmt.Fprintf(out, "%9d %9d %9d %32s %32s %s\n", fr.ID, fr.Size, fr.Offset, fr.LocationHash, fr.ContentHash, fr.Location)
		} else {
			fmt.Fprintf(out, "%9d %9d %9d %32s\n", fr.ID, fr.Size, fr.Offset, fr.LocationHash)
		}
	}

	switch {
	case report.Verified == nil:
	case *report.Verified:
		fmt.Fprintf(out, "verify: %s\n", color.GreenString("ok"))
	default:
		fmt.Fprintf(out, "verify: %s %s\n", color.RedString("FAILED"), report.VerifyError)
	}
}
