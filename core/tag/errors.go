package tag

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrTargetMustBePointer = errors.New("target must be a pointer to a struct")
	ErrTargetIsNil         = errors.New("target is nil")
	ErrUnsupportedType     = errors.New("unsupported type")
	ErrMaxDepthExceeded    = errors.New("max recursion depth exceeded")
)

// FieldError reports which field's default could not be applied.
type FieldError struct {
	Path  string
	Kind  reflect.Kind
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q (%s) default %q: %v", e.Path, e.Kind, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
