package nostd

import (
	"errors"
	"fmt"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// CustomValidator echo请求校验器，基于 go-playground/validator
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

// TransInit 初始化校验错误翻译器
func (cv *CustomValidator) TransInit() error {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)

	trans, ok := uni.GetTranslator("en")
	if !ok {
		return fmt.Errorf("translator not found: en")
	}
	cv.trans = trans

	return entranslations.RegisterDefaultTranslations(cv.Validator, trans)
}

// Validate 执行结构体校验，翻译第一条错误信息
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.Validator.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if ok := errors.As(err, &errs); ok && len(errs) > 0 && cv.trans != nil {
			return fmt.Errorf("%s", errs[0].Translate(cv.trans))
		}
		return err
	}
	return nil
}
