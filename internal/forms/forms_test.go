package forms

import (
	"errors"
	"strings"
	"testing"

	"github.com/yourusername/jobboard/internal/common"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	return verr.Fields
}

func TestRegisterForm(t *testing.T) {
	tests := []struct {
		name  string
		form  RegisterForm
		field string
		msg   string
	}{
		{
			name: "valid",
			form: RegisterForm{Username: " alice ", Email: "a@x.com", Password: "secret1", Password2: "secret1"},
		},
		{
			name:  "short username",
			form:  RegisterForm{Username: "al", Email: "a@x.com", Password: "secret1", Password2: "secret1"},
			field: "username", msg: "Field must be at least 3 characters long.",
		},
		{
			name:  "long username",
			form:  RegisterForm{Username: strings.Repeat("a", 81), Email: "a@x.com", Password: "secret1", Password2: "secret1"},
			field: "username", msg: "Field cannot be longer than 80 characters.",
		},
		{
			name:  "bad email",
			form:  RegisterForm{Username: "alice", Email: "nope", Password: "secret1", Password2: "secret1"},
			field: "email", msg: "Invalid email address.",
		},
		{
			name:  "short password",
			form:  RegisterForm{Username: "alice", Email: "a@x.com", Password: "12345", Password2: "12345"},
			field: "password", msg: "Field must be at least 6 characters long.",
		},
		{
			name:  "mismatch",
			form:  RegisterForm{Username: "alice", Email: "a@x.com", Password: "secret1", Password2: "secret2"},
			field: "password2", msg: "Passwords must match.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := fieldErrors(t, tt.form.Validate())
			if tt.field == "" {
				if len(fields) != 0 {
					t.Fatalf("unexpected errors: %#v", fields)
				}
				return
			}
			if fields[tt.field] != tt.msg {
				t.Fatalf("%s error = %q, want %q (all: %#v)", tt.field, fields[tt.field], tt.msg, fields)
			}
		})
	}
}

func TestRegisterFormTrims(t *testing.T) {
	f := RegisterForm{Username: "  alice  ", Email: " a@x.com ", Password: "secret1", Password2: "secret1"}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if f.Username != "alice" || f.Email != "a@x.com" {
		t.Fatalf("fields not trimmed: %+v", f)
	}
}

func TestLoginFormRequiresBoth(t *testing.T) {
	f := LoginForm{}
	fields := fieldErrors(t, f.Validate())
	if fields["email"] == "" || fields["password"] == "" {
		t.Fatalf("expected both fields to be required, got %#v", fields)
	}
}
