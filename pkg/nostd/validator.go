package nostd

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
)

// CustomValidator echo 请求参数校验器
type CustomValidator struct {
	Validator *validator.Validate

	trans ut.Translator
}

// TransInit 初始化英文翻译器
func (cv *CustomValidator) TransInit() error {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, found := uni.GetTranslator("en")
	if !found {
		return errors.New("translator not found")
	}
	cv.trans = trans
	return entranslations.RegisterDefaultTranslations(cv.Validator, trans)
}

// Validate 实现 echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.Validator.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && cv.trans != nil {
			messages := make([]string, 0, len(ve))
			for _, fe := range ve {
				messages = append(messages, fe.Translate(cv.trans))
			}
			return echo.NewHTTPError(http.StatusBadRequest, strings.Join(messages, "; "))
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
