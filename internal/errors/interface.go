package errors

// ErrorCode identifies a class of failure. Callers branch on codes, never on
// message text.
type ErrorCode string

// Error is a coded error that can carry a custom message, structured data
// and a wrapped cause.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds coded errors.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
