package validation

import (
	"testing"
)

type registerForm struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"omitempty,min=8,password"`
}

func TestPasswordValidator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "all classes present", password: "Secret123", valid: true},
		{name: "missing uppercase", password: "secret123", valid: false},
		{name: "missing lowercase", password: "SECRET123", valid: false},
		{name: "missing digit", password: "SecretPass", valid: false},
		{name: "empty skipped by omitempty", password: "", valid: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			form := registerForm{Name: "Pat", Email: "pat@example.com", Password: tt.password}
			err := Validate.Struct(form)
			if tt.valid && err != nil {
				t.Errorf("Struct() error = %v, want valid", err)
			}
			if !tt.valid && err == nil {
				t.Error("Struct() = nil, want validation error")
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	t.Parallel()

	form := registerForm{Name: "P", Email: "not-an-email", Password: "weak"}
	err := Validate.Struct(form)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	fields := FieldErrors(err)
	if len(fields) != 3 {
		t.Fatalf("got %d field errors, want 3: %+v", len(fields), fields)
	}

	byField := make(map[string]string)
	for _, fe := range fields {
		byField[fe.Field] = fe.Message
	}
	if byField["email"] != "Please provide a valid email" {
		t.Errorf("email message = %q", byField["email"])
	}
	if byField["name"] == "" {
		t.Error("expected a message for name")
	}
	if byField["password"] == "" {
		t.Error("expected a message for password")
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims whitespace", in: "  hello  ", want: "hello"},
		{name: "strips control characters", in: "he\x00llo\x07", want: "hello"},
		{name: "keeps newlines and tabs", in: "line1\n\tline2", want: "line1\n\tline2"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
