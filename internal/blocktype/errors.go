package blocktype

import "errors"

// Sentinel errors shared by the codecs, the builder and the reader.
var (
	// ErrNoFiles is returned when a build is requested with no members.
	ErrNoFiles = errors.New("blocky: no files in block")

	// ErrSourceNotFound is returned when a build source path is missing or not a regular file.
	ErrSourceNotFound = errors.New("blocky: source file not found")

	// ErrTargetExists is returned when the build target path already exists.
	ErrTargetExists = errors.New("blocky: block file already exists")

	// ErrTooManyEntries is returned when the entry count does not fit the header.
	ErrTooManyEntries = errors.New("blocky: too many entries")

	// ErrLocationTooLong is returned when a location does not fit the 16-bit length prefix.
	ErrLocationTooLong = errors.New("blocky: file name too long")

	// ErrInvalidLocation is returned when a location is not valid UTF-8.
	ErrInvalidLocation = errors.New("blocky: location is not valid UTF-8")

	// ErrSizeOverflow is returned when a size or offset exceeds the 32-bit format limits.
	ErrSizeOverflow = errors.New("blocky: size overflow")

	// ErrBlockCorrupted is returned when the block header cannot be decoded.
	ErrBlockCorrupted = errors.New("blocky: illegal block structure")

	// ErrHeaderCorrupted is returned when a member sub-header cannot be decoded.
	ErrHeaderCorrupted = errors.New("blocky: header corrupted")

	// ErrUnsupportedVersion is returned when the block version is unknown.
	ErrUnsupportedVersion = errors.New("blocky: unsupported block version")

	// ErrIndexOutOfRange is returned when a member index is outside [0, Len()).
	ErrIndexOutOfRange = errors.New("blocky: index out of range")

	// ErrFileNotFound is returned when a lookup by id or location has no match.
	ErrFileNotFound = errors.New("blocky: file not found in block")

	// ErrDuplicateID is returned when unique ids are enforced and two requests share one.
	ErrDuplicateID = errors.New("blocky: duplicate file id")

	// ErrSourceChanged is returned when a source file changed between hashing and copying.
	ErrSourceChanged = errors.New("blocky: source file changed during build")

	// ErrHashMismatch is returned when member content does not match its recorded hash.
	ErrHashMismatch = errors.New("blocky: hash verification failed")

	// ErrClosed is returned when reading from a closed block.
	ErrClosed = errors.New("blocky: block is closed")
)
