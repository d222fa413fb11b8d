package blocky

import "log/slog"

// DefaultMaxFiles is the default limit used when no BuildWithMaxFiles option is set.
const DefaultMaxFiles = 200_000

// buildConfig holds configuration for block creation.
type buildConfig struct {
	logger    *slog.Logger
	progress  ProgressFunc
	uniqueIDs bool
	sync      bool
	maxFiles  int
	openOpts  []Option
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// BuildWithLogger sets the logger used during the build. It is also passed
// to the returned Block unless BuildWithOpenOptions overrides it.
func BuildWithLogger(logger *slog.Logger) BuildOption {
	return func(cfg *buildConfig) {
		cfg.logger = logger
	}
}

// BuildWithProgress registers a callback for progress events.
// The callback runs on the building goroutine.
func BuildWithProgress(fn ProgressFunc) BuildOption {
	return func(cfg *buildConfig) {
		cfg.progress = fn
	}
}

// BuildWithUniqueIDs rejects requests that reuse an id with ErrDuplicateID.
// By default id uniqueness is the caller's responsibility and lookups by id
// return the first match.
func BuildWithUniqueIDs(enabled bool) BuildOption {
	return func(cfg *buildConfig) {
		cfg.uniqueIDs = enabled
	}
}

// BuildWithSync fsyncs the block file before it is closed and reopened.
func BuildWithSync(enabled bool) BuildOption {
	return func(cfg *buildConfig) {
		cfg.sync = enabled
	}
}

// BuildWithMaxFiles limits the number of members in one block.
// Zero uses DefaultMaxFiles. Negative means no limit beyond the format's own.
func BuildWithMaxFiles(n int) BuildOption {
	return func(cfg *buildConfig) {
		cfg.maxFiles = n
	}
}

// BuildWithOpenOptions sets the options used to open the finished block.
func BuildWithOpenOptions(opts ...Option) BuildOption {
	return func(cfg *buildConfig) {
		cfg.openOpts = append(cfg.openOpts, opts...)
	}
}
