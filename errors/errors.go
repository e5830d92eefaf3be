package errors

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
)

const (
	UnknownCode = 500
	separator   = ", "
)

// Status is the serialisable part of an Error.
type Status struct {
	Code     int               `json:"code,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error is a coded error with optional metadata and cause. Codes follow HTTP
// status semantics so transports can map them directly.
type Error struct {
	Status
	cause error
}

// Error renders code, message, metadata (sorted by key) and cause.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("code=")
	b.WriteString(strconv.Itoa(e.Code))
	b.WriteString(separator)
	b.WriteString("message=")
	b.WriteString(e.Message)

	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(separator)
		b.WriteString("metadata={")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(separator)
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(e.Metadata[k])
		}
		b.WriteByte('}')
	}

	if e.cause != nil {
		b.WriteString(separator)
		b.WriteString("cause=")
		b.WriteString(e.cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is an *Error with the same code and message.
func (e *Error) Is(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return e.Code == ge.Code && e.Message == ge.Message
	}
	return false
}

// WithMetadata returns a copy of e with m merged into its metadata.
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}
	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}
	maps.Copy(err.Metadata, m)
	return err
}

// WithCause returns a copy of e caused by cause.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}
	err := e.clone()
	err.cause = cause
	return err
}

func (e *Error) clone() *Error {
	return &Error{
		Status: Status{
			Code:     e.Code,
			Message:  e.Message,
			Metadata: maps.Clone(e.Metadata),
		},
		cause: e.cause,
	}
}

func (e *Error) GetCode() int {
	return e.Code
}

func (e *Error) GetMessage() string {
	return e.Message
}

// GetMetadata returns a copy of the metadata.
func (e *Error) GetMetadata() map[string]string {
	if len(e.Metadata) == 0 {
		return nil
	}
	return maps.Clone(e.Metadata)
}

func (e *Error) GetCause() error {
	return e.cause
}

// New creates an error; format is only expanded when args are given.
func New(code int, format string, args ...any) *Error {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	return &Error{Status: Status{Code: code, Message: message}}
}

// FromError returns err as *Error, converting foreign errors to UnknownCode.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return New(UnknownCode, "%v", err).WithCause(err)
}

// Wrap returns nil for a nil err, otherwise a new coded error caused by err.
func Wrap(err error, code int, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return New(code, format, args...).WithCause(err)
}

// Code returns the code of err, UnknownCode for foreign errors and 0 for nil.
func Code(err error) int {
	if err == nil {
		return 0
	}
	return FromError(err).Code
}
