package validator

import (
	"errors"
	"strings"
)

// FieldError 字段校验错误
type FieldError struct {
	Namespace string `json:"namespace"`
	Field     string `json:"field"`
	Tag       string `json:"tag"`
	Param     string `json:"param,omitempty"`
	Value     any    `json:"value"`
	Message   string `json:"message"`
}

func (fe FieldError) Error() string {
	return fe.Message
}

// ValidationErrors 一次校验产生的全部字段错误
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	messages := make([]string, len(ve))
	for i, fe := range ve {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// Field 按命名空间查找字段错误
func (ve ValidationErrors) Field(namespace string) (FieldError, bool) {
	for _, fe := range ve {
		if fe.Namespace == namespace {
			return fe, true
		}
	}
	return FieldError{}, false
}

// IsValidationError 检查是否为校验错误
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
