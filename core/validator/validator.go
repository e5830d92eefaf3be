package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Validate 全局校验器实例
var Validate = New()

// Validator 带翻译的结构体校验器
type Validator struct {
	validate    *validator.Validate
	translators map[string]ut.Translator
	lang        string
}

// Option 校验器选项
type Option func(*Validator)

// WithTagName 设置校验标签名
func WithTagName(tagName string) Option {
	return func(v *Validator) {
		v.validate.SetTagName(tagName)
	}
}

// WithLanguage 设置错误消息语言，支持 en、zh
func WithLanguage(lang string) Option {
	return func(v *Validator) {
		v.lang = lang
	}
}

// New 创建校验器。字段名优先取 mapstructure 标签，其次 json 标签，
// 使错误消息与配置文件中的键一致。
func New(opts ...Option) *Validator {
	v := &Validator{
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		translators: make(map[string]ut.Translator),
		lang:        "en",
	}
	v.validate.RegisterTagNameFunc(fieldName)

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, zh.New())
	if trans, ok := uni.GetTranslator("en"); ok {
		_ = en_translations.RegisterDefaultTranslations(v.validate, trans)
		v.translators["en"] = trans
	}
	if trans, ok := uni.GetTranslator("zh"); ok {
		_ = zh_translations.RegisterDefaultTranslations(v.validate, trans)
		v.translators["zh"] = trans
	}

	for _, opt := range opts {
		opt(v)
	}
	if _, ok := v.translators[v.lang]; !ok {
		v.lang = "en"
	}

	return v
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"mapstructure", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Struct 校验结构体
func (v *Validator) Struct(s any) error {
	return v.StructCtx(context.Background(), s)
}

// StructCtx 带上下文校验结构体
func (v *Validator) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

// Var 校验单个值
func (v *Validator) Var(field any, tag string) error {
	return v.translate(v.validate.Var(field, tag))
}

// Engine 返回底层的 validator 实例，用于注册自定义规则
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

func (v *Validator) translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	trans := v.translators[v.lang]
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Namespace: trimRoot(fe.Namespace()),
			Field:     fe.Field(),
			Tag:       fe.Tag(),
			Param:     fe.Param(),
			Value:     fe.Value(),
			Message:   fe.Translate(trans),
		})
	}
	return out
}

// trimRoot 去掉命名空间中的根结构体名
func trimRoot(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
