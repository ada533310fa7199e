package bakery

import "codeberg.org/mutker/hellobakery/internal/errors"

const (
	// Configuration Errors
	ErrInvalidTargetConfig = errors.ErrorCode("bakery_invalid_target_config")

	// Target Errors
	ErrUnsupportedTarget = errors.ErrorCode("bakery_unsupported_target")

	// Payload Errors
	ErrEncodePayload = errors.ErrorCode("bakery_encode_payload_failed")
)
