// Command blocky creates, inspects and exports block files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
)

const usage = `blocky - block inspection utility

Usage:
  blocky create [-root DIR] [-sync] [-debug] BLOCK INPUT...
  blocky inspect [-v] [-verify] [-format text|json|yaml] [-no-color] BLOCK...
  blocky export [-o FILE] [-compress none|zstd|lz4] [-verify] BLOCK ID

Run "blocky COMMAND -h" for the flags of a command.
`

// errUsage marks errors caused by bad command-line arguments.
var errUsage = errors.New("usage")

func main() {
	log.SetFlags(0)
	log.SetPrefix("blocky: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
			os.Exit(2) //nolint:gocritic // exitAfterDefer is fine, stop only releases the signal handler
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	switch args[0] {
	case "create":
		return runCreate(ctx, args[1:], stdout, stderr)
	case "inspect":
		return runInspect(ctx, args[1:], stdout, stderr)
	case "export":
		return runExport(args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		_, err := io.WriteString(stdout, usage)
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// newLogger returns a text logger on stderr. Only warnings are shown unless debug is set.
func newLogger(stderr io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}
