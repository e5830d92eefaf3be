// Package tag fills zero-valued struct fields from `default:"..."` tags.
package tag

import (
	"reflect"
)

const (
	tagName  = "default"
	maxDepth = 32
)

// ApplyDefaults sets every zero-valued field of the struct pointed to by
// target to the value of its default tag. Nested structs, pointers to structs
// and struct elements of non-empty slices are visited recursively; a nil
// pointer to a struct is only allocated when the field carries a default tag
// (any value, conventionally "{}"). Fields that already hold a value are left
// alone.
//
//	type Server struct {
//	    Addr    string        `default:":8080"`
//	    Timeout time.Duration `default:"5s"`
//	}
func ApplyDefaults(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer {
		return ErrTargetMustBePointer
	}
	if v.IsNil() {
		return ErrTargetIsNil
	}
	if v.Elem().Kind() != reflect.Struct {
		return ErrTargetMustBePointer
	}
	return applyStruct(v.Elem(), "", 0)
}

func applyStruct(v reflect.Value, path string, depth int) error {
	if depth >= maxDepth {
		return ErrMaxDepthExceeded
	}

	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}

		if err := applyField(fv, field.Tag.Get(tagName), fieldPath, depth); err != nil {
			return err
		}
	}
	return nil
}

func applyField(v reflect.Value, def, path string, depth int) error {
	switch v.Kind() {
	case reflect.Struct:
		return applyStruct(v, path, depth+1)

	case reflect.Pointer:
		if v.Type().Elem().Kind() != reflect.Struct {
			break
		}
		if v.IsNil() {
			if def == "" {
				return nil
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		return applyStruct(v.Elem(), path, depth+1)

	case reflect.Slice:
		if v.Len() > 0 {
			for i := 0; i < v.Len(); i++ {
				elem := v.Index(i)
				if elem.Kind() == reflect.Pointer && !elem.IsNil() {
					elem = elem.Elem()
				}
				if elem.Kind() == reflect.Struct {
					if err := applyStruct(elem, path, depth+1); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}

	if def == "" || !v.IsZero() {
		return nil
	}
	if err := parse(v, def); err != nil {
		return &FieldError{Path: path, Kind: v.Kind(), Value: def, Err: err}
	}
	return nil
}
