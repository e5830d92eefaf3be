package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/kochabx/ratelimit/core/validator"
	"github.com/kochabx/ratelimit/errors"
)

// Type 规则节点类型
type Type string

const (
	TypeAnd           Type = "and"
	TypeOr            Type = "or"
	TypeNot           Type = "not"
	TypeAllow         Type = "allow"
	TypeDeny          Type = "deny"
	TypeTokenBucket   Type = "token_bucket"
	TypeSlidingWindow Type = "sliding_window"
)

// Definition 声明式规则树，可从 YAML/JSON 配置解码
type Definition struct {
	Type  Type         `mapstructure:"type" json:"type" validate:"required,oneof=and or not allow deny token_bucket sliding_window"`
	Name  string       `mapstructure:"name" json:"name,omitempty"`
	Rules []Definition `mapstructure:"rules" json:"rules,omitempty" validate:"dive"`

	// token_bucket
	Capacity int `mapstructure:"capacity" json:"capacity,omitempty" validate:"gte=0"`
	Rate     int `mapstructure:"rate" json:"rate,omitempty" validate:"gte=0"`

	// sliding_window
	Window time.Duration `mapstructure:"window" json:"window,omitempty" validate:"gte=0"`
	Limit  int           `mapstructure:"limit" json:"limit,omitempty" validate:"gte=0"`
}

// IsComposite 是否为组合节点
func (d Definition) IsComposite() bool {
	switch d.Type {
	case TypeAnd, TypeOr, TypeNot:
		return true
	}
	return false
}

// Validate 校验字段取值和树结构
func (d *Definition) Validate() error {
	if err := validator.Validate.Struct(d); err != nil {
		return errors.Wrap(err, 400, "invalid definition")
	}
	return d.validateTree("")
}

func (d *Definition) validateTree(path string) error {
	at := func(format string, args ...any) error {
		msg := fmt.Sprintf(format, args...)
		if path == "" {
			return errors.BadRequest("%s", msg)
		}
		return errors.BadRequest("rules%s: %s", path, msg)
	}

	if !d.IsComposite() && len(d.Rules) > 0 {
		return at("%s does not take sub-rules", d.Type)
	}

	switch d.Type {
	case TypeNot:
		if len(d.Rules) != 1 {
			return at("not takes exactly one sub-rule, got %d", len(d.Rules))
		}
	case TypeTokenBucket:
		if d.Capacity <= 0 || d.Rate <= 0 {
			return at("token_bucket needs positive capacity and rate")
		}
	case TypeSlidingWindow:
		if d.Limit <= 0 {
			return at("sliding_window needs a positive limit")
		}
		if d.Window < time.Second || d.Window%time.Second != 0 {
			return at("sliding_window window must be whole seconds, got %s", d.Window)
		}
	}

	names := make(map[string]int, len(d.Rules))
	for i := range d.Rules {
		child := &d.Rules[i]
		childPath := fmt.Sprintf("%s[%d]", path, i)
		if child.Name != "" {
			if err := ValidateName(child.Name); err != nil {
				return errors.BadRequest("rules%s: %s", childPath, errors.FromError(err).GetMessage())
			}
			if j, ok := names[child.Name]; ok {
				return errors.BadRequest("rules%s: name %q already used by rules%s[%d]", childPath, child.Name, path, j)
			}
			names[child.Name] = i
		}
		if err := child.validateTree(childPath); err != nil {
			return err
		}
	}
	return nil
}

// ValidateName 校验规则节点名。名称参与计数键和指标标签的拼接，
// 不能包含分隔符，也不能是纯数字（与未命名节点的序号冲突）。
func ValidateName(name string) error {
	if name == "" {
		return errors.BadRequest("name is empty")
	}
	if strings.ContainsAny(name, reservedNameChars) {
		return errors.BadRequest("name %q must not contain any of %q", name, reservedNameChars)
	}
	if isDigits(name) {
		return errors.BadRequest("name %q must not be all digits", name)
	}
	return nil
}

const reservedNameChars = "/:{}"

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
