package blocktype

// ProgressEvent represents a progress update during a build.
type ProgressEvent struct {
	// Stage identifies the current phase of the build.
	Stage ProgressStage

	// Location is the logical location of the member being processed, if any.
	Location string

	// BytesDone is the number of bytes processed in the current stage.
	BytesDone uint64

	// BytesTotal is the total bytes for the current stage.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of members processed in the current stage.
	FilesDone int

	// FilesTotal is the number of members in the build.
	FilesTotal int
}

// ProgressStage identifies the current phase of a build.
type ProgressStage uint8

// Build stages.
const (
	// StageHashing indicates source files are being stat'ed and hashed.
	StageHashing ProgressStage = iota

	// StageWriting indicates the block file is being written.
	StageWriting

	// StageOpening indicates the finished block is being mapped.
	StageOpening
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageHashing:
		return "hashing"
	case StageWriting:
		return "writing"
	case StageOpening:
		return "opening"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during a build.
type ProgressFunc func(ProgressEvent)
