package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Skotchmaster/dulcehogar/internal/db"
)

var (
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoCustomers        = errors.New("no customers")
	ErrInUse              = errors.New("in use")
)

// InputError names the offending field. It matches ErrInvalidInput with errors.Is.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Message)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, message string) error {
	return &InputError{Field: field, Message: message}
}

// notFound maps gorm's missing-row error onto ErrNotFound and passes anything else through.
func notFound(err error, what string) error {
	if db.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func duplicate(err error, sentinel error, what string) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", sentinel, what)
	}
	return err
}

var validate = validator.New()

func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		if min <= 1 && n == 0 {
			return invalid(field, "este campo es obligatorio")
		}
		return invalid(field, fmt.Sprintf("debe tener entre %d y %d caracteres", min, max))
	}
	return nil
}

func checkMax(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return invalid(field, fmt.Sprintf("no puede superar %d caracteres", max))
	}
	return nil
}

func checkEmail(field, value string) error {
	if value == "" {
		return invalid(field, "este campo es obligatorio")
	}
	if err := validate.Var(value, "email,max=120"); err != nil {
		return invalid(field, "correo electrónico inválido")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
