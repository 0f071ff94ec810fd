package errors

// ErrorCode identifies a class of failure, e.g. missing trace events
type ErrorCode string

// Error is a domain error carrying a code and optional payload.
// Payloads are typed per code: MissingEventsData for ErrMissingTraceEvents,
// AccessorData for ErrUnknownAccessor.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory defines methods for creating domain errors
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
