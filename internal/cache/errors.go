package cache

import "errors"

// Internal sentinels. Public Store operations log these and fall back to a
// miss or a no-op instead of returning them.
var (
	ErrUnavailable = errors.New("cache: unavailable")
	ErrNotFound    = errors.New("cache: not found")
	ErrExpired     = errors.New("cache: expired")
	ErrCorrupt     = errors.New("cache: corrupt row")
)
