package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Credentials is the sign-in form payload.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// Registration is the sign-up form payload. Phone accepts either E.164 or a
// bare national number.
type Registration struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Phone    string `validate:"required,min=6,e164|numeric"`
}

// ValidationError describes client-side input problems found before any
// request is sent. Fields maps the offending field name to a short message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "dados inválidos: " + strings.Join(parts, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkInput runs struct validation and converts failures into a ValidationError.
func checkInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "obrigatório"
		case "email":
			fields[fe.Field()] = "email inválido"
		case "min":
			fields[fe.Field()] = "muito curto"
		default:
			fields[fe.Field()] = "inválido"
		}
	}
	return &ValidationError{Fields: fields}
}
