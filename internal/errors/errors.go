package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Basic error check functions from standard library
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// appError implements the Error interface
type appError struct {
	code    ErrorCode
	message string
	err     error
	data    any
}

func (e *appError) Error() string {
	msg := e.message
	if msg == "" {
		msg = GetErrorMessage(e.code)
	}

	if e.data != nil {
		return fmt.Sprintf("%s: %v", msg, e.data)
	}

	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}

	return msg
}

func (e *appError) Code() ErrorCode {
	return e.code
}

func (e *appError) WithMessage(msg string) Error {
	return &appError{
		code:    e.code,
		message: msg,
		err:     e.err,
		data:    e.data,
	}
}

func (e *appError) WithData(data any) Error {
	return &appError{
		code:    e.code,
		message: e.message,
		err:     e.err,
		data:    data,
	}
}

func (e *appError) GetData() any {
	return e.data
}

func (e *appError) Unwrap() error {
	return e.err
}

type defaultFactory struct{}

func (*defaultFactory) New(code ErrorCode) Error {
	return &appError{
		code: code,
	}
}

func (*defaultFactory) Wrap(code ErrorCode, err error) Error {
	return &appError{
		code: code,
		err:  err,
	}
}

func (*defaultFactory) WithMessage(code ErrorCode, msg string) Error {
	return &appError{
		code:    code,
		message: msg,
	}
}

func (*defaultFactory) WithData(code ErrorCode, data any) Error {
	return &appError{
		code: code,
		data: data,
	}
}

// New creates a Factory instance for error creation
func New() Factory {
	return &defaultFactory{}
}

// CodeOf returns the code of the outermost domain error in the chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e Error
	if !As(err, &e) {
		return "", false
	}

	return e.Code(), true
}

// HasCode reports whether any domain error in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(Error); ok && e.Code() == code {
			return true
		}
		err = Unwrap(err)
	}

	return false
}

// MissingEventsData is attached to ErrMissingTraceEvents errors.
type MissingEventsData []string

func (d MissingEventsData) String() string {
	return "[" + strings.Join(d, " ") + "]"
}

// NewMissingEvents builds an ErrMissingTraceEvents error naming the given events.
func NewMissingEvents(events []string) Error {
	missing := make(MissingEventsData, len(events))
	copy(missing, events)
	sort.Strings(missing)

	return New().WithData(ErrMissingTraceEvents, missing)
}

// MissingEvents extracts the missing event names from an ErrMissingTraceEvents error.
func MissingEvents(err error) ([]string, bool) {
	for err != nil {
		if e, ok := err.(Error); ok && e.Code() == ErrMissingTraceEvents {
			if data, ok := e.GetData().(MissingEventsData); ok {
				return []string(data), true
			}
		}
		err = Unwrap(err)
	}

	return nil, false
}

// AccessorData is attached to ErrUnknownAccessor errors.
type AccessorData struct {
	Module    string
	Namespace string
	Name      string
	Valid     []string
}

func (d AccessorData) String() string {
	return fmt.Sprintf("%s has no %s accessor %q (valid: %s)",
		d.Module, d.Namespace, d.Name, strings.Join(d.Valid, ", "))
}
