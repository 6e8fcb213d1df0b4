package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/plutocart/user-service/pkg/errors"
)

const (
	maxBodyBytes = 1 << 20

	passwordSpecials = "@$!%*?&"
	passwordMinLen   = 8
)

var validate = newValidator()

// Normalizer is implemented by request bodies that trim or case-fold fields
// before validation.
type Normalizer interface {
	Normalize()
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// StrongPassword requires at least eight characters drawn from letters, digits
// and @$!%*?&, with one of each class present.
func StrongPassword(password string) bool {
	if len(password) < passwordMinLen {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

func DecodeJSONBody(r *http.Request, dest any) error {
	_, err := decodeBody(r, dest, false)
	return err
}

// DecodeOptionalJSONBody behaves like DecodeJSONBody but treats an absent or
// empty body, chunked or not, as no input and reports whether one was decoded.
func DecodeOptionalJSONBody(r *http.Request, dest any) (bool, error) {
	return decodeBody(r, dest, true)
}

func decodeBody(r *http.Request, dest any, optional bool) (bool, error) {
	if r.Body == nil || r.Body == http.NoBody {
		if optional {
			return false, nil
		}
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid request body").WithDetails(map[string]any{"error": io.EOF.Error()})
	}
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer func() {
		io.Copy(io.Discard, body)
	}()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	if n, ok := dest.(Normalizer); ok {
		n.Normalize()
	}
	return true, Struct(dest)
}

// Struct validates an already decoded value.
func Struct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "Validation Failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Validation Failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "password":
		return "must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character (@$!%*?&)"
	}
	return "is invalid"
}
