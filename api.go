package blocky

import (
	"github.com/meigma/blocky/internal/blocktype"
	"github.com/meigma/blocky/internal/format"
)

// Re-export types from internal packages for the public API.
type (
	// FileInfo is the block header entry describing one member.
	FileInfo = format.FileInfo

	// FileHeader is the sub-header stored inline before each member's content.
	FileHeader = format.FileHeader

	// BlockHeader is the decoded header of a block.
	BlockHeader = format.BlockHeader

	// ProgressEvent represents a progress update during a build.
	ProgressEvent = blocktype.ProgressEvent

	// ProgressStage identifies the current phase of a build.
	ProgressStage = blocktype.ProgressStage

	// ProgressFunc receives progress updates during a build.
	ProgressFunc = blocktype.ProgressFunc
)

// Format constants.
const (
	// PageSize is the alignment of every member offset.
	PageSize = format.PageSize

	// Version1 is the only defined block format version.
	Version1 = format.Version1

	// MaxLocationLen is the longest location a member may carry.
	MaxLocationLen = format.MaxLocationLen
)

// Re-export progress stage constants.
const (
	StageHashing = blocktype.StageHashing
	StageWriting = blocktype.StageWriting
	StageOpening = blocktype.StageOpening
)

// LocationHash returns the MD5 digest of a logical location, as stored in FileInfo.
var LocationHash = format.LocationHash

// RoundUp returns the smallest multiple of base that is >= value. base must be
// positive and the result must fit in a uint64, otherwise RoundUp panics.
var RoundUp = format.RoundUp

// Sentinel errors re-exported from internal/blocktype.
var (
	// ErrNoFiles is returned when Build is called without requests.
	ErrNoFiles = blocktype.ErrNoFiles

	// ErrSourceNotFound is returned when a source path is missing or not a regular file.
	ErrSourceNotFound = blocktype.ErrSourceNotFound

	// ErrTargetExists is returned when the build target already exists.
	ErrTargetExists = blocktype.ErrTargetExists

	// ErrTooManyEntries is returned when the entry count exceeds the format or configured limit.
	ErrTooManyEntries = blocktype.ErrTooManyEntries

	// ErrLocationTooLong is returned when a location exceeds MaxLocationLen bytes.
	ErrLocationTooLong = blocktype.ErrLocationTooLong

	// ErrInvalidLocation is returned when a location is not valid UTF-8.
	ErrInvalidLocation = blocktype.ErrInvalidLocation

	// ErrSizeOverflow is returned when a member size or offset exceeds 32 bits.
	ErrSizeOverflow = blocktype.ErrSizeOverflow

	// ErrBlockCorrupted is returned when a block header cannot be decoded.
	ErrBlockCorrupted = blocktype.ErrBlockCorrupted

	// ErrHeaderCorrupted is returned when a member sub-header cannot be decoded.
	ErrHeaderCorrupted = blocktype.ErrHeaderCorrupted

	// ErrUnsupportedVersion is returned when a block declares an unknown version.
	ErrUnsupportedVersion = blocktype.ErrUnsupportedVersion

	// ErrIndexOutOfRange is returned when a member index is outside [0, Len()).
	ErrIndexOutOfRange = blocktype.ErrIndexOutOfRange

	// ErrFileNotFound is returned when no member matches an id or location.
	ErrFileNotFound = blocktype.ErrFileNotFound

	// ErrDuplicateID is returned when BuildWithUniqueIDs is set and ids repeat.
	ErrDuplicateID = blocktype.ErrDuplicateID

	// ErrSourceChanged is returned when a source file changes while a block is built.
	ErrSourceChanged = blocktype.ErrSourceChanged

	// ErrHashMismatch is returned when member content does not match its hash.
	ErrHashMismatch = blocktype.ErrHashMismatch

	// ErrClosed is returned when reading from a closed Block.
	ErrClosed = blocktype.ErrClosed
)
