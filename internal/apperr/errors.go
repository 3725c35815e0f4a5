package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrLockHeld     = errors.New("lock held by another run")
	ErrReadOnlyRole = errors.New("instance is configured read-only")
)
