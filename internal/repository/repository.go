package repository

import "errors"

// ErrConflict reports a conditional update that matched no row because the
// record moved on to another state.
var ErrConflict = errors.New("state changed concurrently")

const maxListLimit = 100

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
