package format

import "math"

// PageSize is the boundary every member offset is aligned to.
const PageSize = 1024

// RoundUp returns the smallest multiple of base that is >= value.
// A value that is already a multiple of base is returned unchanged.
//
// base must be positive and the result must fit in a uint64; RoundUp
// panics when either precondition is violated.
func RoundUp(value, base uint64) uint64 {
	if base == 0 {
		panic("format: RoundUp called with zero base")
	}
	rem := value % base
	if rem == 0 {
		return value
	}
	pad := base - rem
	if value > math.MaxUint64-pad {
		panic("format: RoundUp result overflows uint64")
	}
	return value + pad
}
