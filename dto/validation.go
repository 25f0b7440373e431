package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/utils"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the domain tags registered:
// mealtime, examtype, difficulty, diabetestype, role, strongpassword,
// pastdate.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})

		mustRegister(v, "mealtime", func(fl validator.FieldLevel) bool {
			return models.MealTime(fl.Field().String()).IsValid()
		})
		mustRegister(v, "examtype", func(fl validator.FieldLevel) bool {
			return models.ExamType(fl.Field().String()).IsValid()
		})
		mustRegister(v, "difficulty", func(fl validator.FieldLevel) bool {
			return models.Difficulty(fl.Field().String()).IsValid()
		})
		mustRegister(v, "diabetestype", func(fl validator.FieldLevel) bool {
			value := models.DiabetesType(fl.Field().String())
			for _, known := range models.DiabetesTypes {
				if value == known {
					return true
				}
			}
			return false
		})
		mustRegister(v, "role", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseRole(fl.Field().String())
			return ok
		})
		mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		})
		mustRegister(v, "pastdate", func(fl validator.FieldLevel) bool {
			t, err := utils.ParseDate(fl.Field().String())
			return err == nil && !utils.IsFuture(t, time.Now())
		})

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// IsStrongPassword requires a lower-case letter, an upper-case letter and a digit
func IsStrongPassword(password string) bool {
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// Validate checks req against its validate tags and returns a validation
// *apperrors.AppError listing every failing field
func Validate(req interface{}) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Internal(err, "Failed to validate request")
	}

	fields := make([]apperrors.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, apperrors.FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return apperrors.Validation("Validation failed", fields...)
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Please provide a valid email"
	case "min", "gte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "mealtime":
		return "Invalid meal time"
	case "examtype":
		return "Invalid exam type"
	case "difficulty":
		return "Difficulty must be Easy, Intermediate or Hard"
	case "diabetestype":
		return "Invalid diabetes type"
	case "role":
		return "Invalid role. Must be admin, editor or user"
	case "strongpassword":
		return "Password must contain at least one lowercase letter, one uppercase letter and one number"
	case "pastdate":
		return field + " must be a valid date that is not in the future"
	}
	return fmt.Sprintf("%s is invalid", field)
}
