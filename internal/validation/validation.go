// Package validation は validator/v10 を使ったフォーム検証と、
// フィールド単位のエラーメッセージへの変換を提供します。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/models"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator は共有の *validator.Validate を返します。
// フィールド名には form タグの名前を使い、独自ルール category を登録済みです。
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return models.IsCategory(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct は s を検証し、失敗時は *common.ValidationError を返します。
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := common.NewValidationError()
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "email":
		return "Invalid email address."
	case "eqfield":
		return "Passwords must match."
	case "category":
		return "Not a valid choice."
	default:
		return "Invalid value."
	}
}
