package model

import "fmt"

// BatchRange resolves the [lo, hi) slice bounds for paginated enumeration.
//
// An empty collection is always a no-op returning [0, 0). Otherwise a
// startAfter at or beyond length fails, while a limit overshooting the end
// only truncates: out-of-range start fails, over-long limit does not.
func BatchRange(length, limit, startAfter int) (lo, hi int, err error) {
	if length == 0 {
		return 0, 0, nil
	}
	if startAfter >= length {
		return 0, 0, fmt.Errorf("%w: startAfter %d, length %d", ErrStartAfterOutOfRange, startAfter, length)
	}
	hi = startAfter + limit
	if hi > length {
		hi = length
	}
	return startAfter, hi, nil
}
