package stage

import "codeberg.org/mutker/hellobakery/internal/errors"

const (
	ErrInvalidConfig   = errors.ErrorCode("stage_invalid_config")
	ErrSourceMissing   = errors.ErrorCode("stage_source_missing")
	ErrWriteFailed     = errors.ErrorCode("stage_write_failed")
	ErrWindowsConfig   = errors.ErrorCode("stage_windows_config_failed")
	ErrConflictingPath = errors.ErrorCode("stage_conflicting_config_path")
)
