package errors

import (
	goerrors "errors"
)

// Re-exports of the standard library helpers so callers need one import.

func Unwrap(err error) error {
	return goerrors.Unwrap(err)
}

func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

func As(err error, target any) bool {
	return goerrors.As(err, target)
}

func Join(errs ...error) error {
	return goerrors.Join(errs...)
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if goerrors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
