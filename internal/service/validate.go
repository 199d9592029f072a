package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"umap/backend/internal/parser"
)

// ErrInvalidInput 请求参数未通过校验，具体原因附在包装信息中
var ErrInvalidInput = errors.New("参数校验失败")

// Palette 课表颜色轮换顺序
var Palette = []string{"blue", "green", "purple", "red", "yellow"}

// IsPaletteColor 是否为合法的课表颜色
func IsPaletteColor(color string) bool {
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

// inputValidator validator/v10 封装，错误信息翻译为中文
type inputValidator struct {
	v     *validator.Validate
	trans ut.Translator
}

type customRule struct {
	tag     string
	message string
	fn      validator.Func
}

var customRules = []customRule{
	{"weekday", "{0}必须是 Monday 至 Sunday 之一", func(fl validator.FieldLevel) bool {
		return parser.IsWeekday(fl.Field().String())
	}},
	{"clock", "{0}必须是 HH:MM 格式的时间", func(fl validator.FieldLevel) bool {
		_, err := parser.ParseClock(fl.Field().String())
		return err == nil
	}},
	{"palette", "{0}必须是 blue、green、purple、red、yellow 之一", func(fl validator.FieldLevel) bool {
		return IsPaletteColor(fl.Field().String())
	}},
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := zh.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("zh")
	_ = zh_translations.RegisterDefaultTranslations(v, trans)

	for _, rule := range customRules {
		rule := rule
		_ = v.RegisterValidation(rule.tag, rule.fn)
		_ = v.RegisterTranslation(rule.tag, trans,
			func(t ut.Translator) error { return t.Add(rule.tag, rule.message, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(rule.tag, fe.Field())
				return msg
			},
		)
	}

	return &inputValidator{v: v, trans: trans}
}

// Struct 校验结构体，只返回第一条错误
func (iv *inputValidator) Struct(s interface{}) error {
	err := iv.v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, ve[0].Translate(iv.trans))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
