package blocky

import (
	"log/slog"
	"runtime"
)

// Option configures a Block opened with Open.
type Option func(*Block)

// defaultVerifyConcurrency is used when no WithVerifyConcurrency option is set.
var defaultVerifyConcurrency = runtime.GOMAXPROCS(0)

// WithLogger sets the logger used by the Block.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Block) {
		b.logger = logger
	}
}

// WithVerifyConcurrency sets how many members VerifyAll hashes at once.
// Values < 1 fall back to GOMAXPROCS.
func WithVerifyConcurrency(n int) Option {
	return func(b *Block) {
		if n < 1 {
			n = defaultVerifyConcurrency
		}
		b.verifyConcurrency = n
	}
}
