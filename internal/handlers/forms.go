package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

type LoginForm struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type CategoryForm struct {
	Name        string `form:"name"        validate:"required,min=2,max=100"`
	Description string `form:"description" validate:"max=200"`
}

func (f CategoryForm) input() transport.CategoryInput {
	return transport.CategoryInput{Name: f.Name, Description: f.Description}
}

// Numeric fields stay strings so a rejected value is shown back as typed.
type ProductForm struct {
	Name       string `form:"name"        validate:"required,min=2,max=120"`
	Quantity   string `form:"quantity"    validate:"required,nonneg_int"`
	Price      string `form:"price"       validate:"required,nonneg_decimal"`
	CategoryID string `form:"category_id" validate:"omitempty,numeric"`
}

func (f ProductForm) input() transport.ProductInput {
	qty, _ := strconv.Atoi(strings.TrimSpace(f.Quantity))
	price, _ := parseDecimal(f.Price)
	in := transport.ProductInput{Name: f.Name, Quantity: qty, Price: price}
	if id, err := strconv.ParseUint(strings.TrimSpace(f.CategoryID), 10, 64); err == nil && id > 0 {
		cid := uint(id)
		in.CategoryID = &cid
	}
	return in
}

type CustomerForm struct {
	Name    string `form:"name"    validate:"required,min=2,max=120"`
	Email   string `form:"email"   validate:"required,email,max=120"`
	Phone   string `form:"phone"   validate:"max=20"`
	Address string `form:"address" validate:"max=200"`
}

func (f CustomerForm) input() transport.CustomerInput {
	return transport.CustomerInput{Name: f.Name, Email: f.Email, Phone: f.Phone, Address: f.Address}
}

type OrderForm struct {
	CustomerID string `form:"customer_id" validate:"required,numeric"`
	Date       string `form:"date"        validate:"required,max=20"`
}

func (f OrderForm) input() transport.OrderInput {
	id, _ := strconv.ParseUint(strings.TrimSpace(f.CustomerID), 10, 64)
	return transport.OrderInput{CustomerID: uint(id), Date: f.Date}
}

type StatusForm struct {
	Status string `form:"status" validate:"required,oneof=fulfilled cancelled"`
}

// UserForm.Password is only required when creating.
type UserForm struct {
	Name     string `form:"name"     validate:"required,max=120"`
	Email    string `form:"email"    validate:"required,email,max=120"`
	Password string `form:"password"`
	Role     string `form:"role"     validate:"required,oneof=admin employee"`
}

func (f UserForm) input() transport.UserInput {
	return transport.UserInput{Name: f.Name, Email: f.Email, Role: f.Role, Password: f.Password}
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

type FormValidator struct {
	v *validator.Validate
}

func NewFormValidator() *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nonneg_int", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n >= 0
	})
	_ = v.RegisterValidation("nonneg_decimal", func(fl validator.FieldLevel) bool {
		f, err := parseDecimal(fl.Field().String())
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
	})
	return &FormValidator{v: v}
}

func (fv *FormValidator) Validate(i any) error {
	return fv.v.Struct(i)
}

var fieldMessages = map[string]string{
	"required":       "Este campo es obligatorio.",
	"email":          "Correo electrónico inválido.",
	"nonneg_int":     "Debe ser un número entero mayor o igual a 0.",
	"nonneg_decimal": "Debe ser un número mayor o igual a 0.",
	"numeric":        "Selecciona una opción válida.",
	"oneof":          "Selecciona una opción válida.",
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		switch fe.Tag() {
		case "min":
			out[fe.Field()] = fmt.Sprintf("Debe tener al menos %s caracteres.", fe.Param())
		case "max":
			out[fe.Field()] = fmt.Sprintf("No puede superar %s caracteres.", fe.Param())
		default:
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = "Valor inválido."
			}
			out[fe.Field()] = msg
		}
	}
	return out
}

// bindForm binds and validates dst. A malformed body is a 400; validation
// problems come back as field errors.
func bindForm(c echo.Context, dst any) (map[string]string, error) {
	if err := c.Bind(dst); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "formulario inválido").SetInternal(err)
	}
	if err := c.Validate(dst); err != nil {
		errs := fieldErrors(err)
		if len(errs) == 0 {
			return nil, err
		}
		return errs, nil
	}
	return nil, nil
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
