package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	// digits with optional leading + and common separators, 7 to 15 digits in total
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}[0-9]$`)
	codeRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,31}$`)
	chestRegex = regexp.MustCompile(`^[A-Za-z]{0,4}[0-9]{1,6}$`)
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// messages use the name clients sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	must(v.RegisterValidation("notblank", validators.NotBlank))
	must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return isPhone(fl.Field().String())
	}))
	must(v.RegisterValidation("code", func(fl validator.FieldLevel) bool {
		return codeRegex.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("chest", func(fl validator.FieldLevel) bool {
		return chestRegex.MatchString(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateStruct checks the `validate` tags of a struct's fields and reports
// the first failing one. Besides the built-in rules it knows notblank, phone,
// code and chest.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return fieldError(fieldErrs[0])
}

func fieldError(fe validator.FieldError) error {
	name := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Errorf("%s is required", name)
	case "email":
		return fmt.Errorf("%s must be a valid email", name)
	case "phone":
		return fmt.Errorf("%s must be a valid phone number", name)
	case "code":
		return fmt.Errorf("%s must be 1-32 letters, digits, '-' or '_'", name)
	case "chest":
		return fmt.Errorf("%s must be a chest number like C101", name)
	case "min":
		return fmt.Errorf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", name, fe.Param())
	}
	return fmt.Errorf("%s is invalid", name)
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if validate.Var(email, "email") != nil {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword validates a password
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// ValidatePhone accepts international and local numbers with spaces or dashes
func ValidatePhone(phone string) error {
	if validate.Var(phone, "phone") != nil {
		return errors.New("invalid phone number")
	}
	return nil
}

func isPhone(phone string) bool {
	if !phoneRegex.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// ValidateChestNumber accepts an optional letter prefix followed by digits, e.g. C101
func ValidateChestNumber(chest string) error {
	if validate.Var(chest, "chest") != nil {
		return fmt.Errorf("invalid chest number %q", chest)
	}
	return nil
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(SanitizeString(email))
}

// SanitizeCode trims and upper-cases college and student codes
func SanitizeCode(code string) string {
	return strings.ToUpper(SanitizeString(code))
}
