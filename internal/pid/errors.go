package pid

import "codeberg.org/mutker/hellobakery/internal/errors"

const (
	ErrLocked      = errors.ErrorCode("pid_locked")
	ErrLockFailed  = errors.ErrorCode("pid_lock_failed")
	ErrStaleHolder = errors.ErrorCode("pid_stale_holder")
)
