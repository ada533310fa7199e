package check

import "codeberg.org/mutker/hellobakery/internal/errors"

const (
	// Parse Errors
	ErrParseFailed = errors.ErrorCode("check_parse_failed")
)
