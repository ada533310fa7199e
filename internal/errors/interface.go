package errors

// ErrorCode names a failure class. Codes are stable; loggers emit them as
// error_code.
type ErrorCode string

// Error is a coded error. Data holds structured detail for logs, the
// message defaults to the text registered for the code.
type Error interface {
	error
	Code() ErrorCode
	Data() any
	WithMessage(msg string) Error
	WithData(data any) Error
}

// Factory builds coded errors, optionally around a cause.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
