// Package forms は認証系フォームの入力と検証を定義します。
// バインドは gin の ShouldBind、検証は validation パッケージで行います。
package forms

import (
	"strings"

	"github.com/yourusername/jobboard/internal/validation"
)

// RegisterForm はユーザー登録フォームです。
type RegisterForm struct {
	Username  string `form:"username" validate:"required,min=3,max=80"`
	Email     string `form:"email" validate:"required,email,max=120"`
	Password  string `form:"password" validate:"required,min=6,max=128"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

// Validate は前後の空白を除去してから検証します。パスワードはそのまま扱います。
func (f *RegisterForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	return validation.Struct(f)
}

// LoginForm はログインフォームです。
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Validate はログインフォームを検証します。
func (f *LoginForm) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	return validation.Struct(f)
}
