package history

import "codeberg.org/mutker/hellobakery/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("history_invalid_db_path")
	ErrInvalidSample = errors.ErrorCode("history_invalid_sample")

	ErrSchema = errors.ErrorCode("history_schema_failed")
	ErrBackup = errors.ErrorCode("history_backup_failed")

	ErrStorageAccess = errors.ErrorCode("history_storage_access_failed")
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed

	ErrOperationTimeout = errors.ErrTimeout
)
