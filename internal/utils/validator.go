package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/bochamaakram/knowway/internal/errors"
	"github.com/bochamaakram/knowway/internal/models"
)

// Validator wraps struct-tag validation and converts failures into the
// shared ValidationErrors type.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// Custom validation functions

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// allowedEmailTLDs mirrors the registration policy: only common TLDs.
var allowedEmailTLDs = map[string]bool{
	"com": true, "ma": true, "net": true, "org": true, "edu": true,
	"gov": true, "io": true, "co": true, "fr": true, "uk": true,
	"de": true, "es": true, "it": true,
}

func ValidateUsername(fl validator.FieldLevel) bool {
	return usernameRegexp.MatchString(fl.Field().String())
}

func ValidateEmailTLD(fl validator.FieldLevel) bool {
	email := fl.Field().String()
	dot := strings.LastIndex(email, ".")
	if dot < 0 || dot == len(email)-1 {
		return false
	}
	return allowedEmailTLDs[strings.ToLower(email[dot+1:])]
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleLearner,
		models.RoleTeacher,
		models.RoleSuperAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func ValidateCourseLevel(fl validator.FieldLevel) bool {
	validLevels := []models.CourseLevel{
		models.LevelBeginner,
		models.LevelIntermediate,
		models.LevelAdvanced,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("username", ValidateUsername)
	validate.RegisterValidation("email_tld", ValidateEmailTLD)
	validate.RegisterValidation("user_role", ValidateUserRole)
	validate.RegisterValidation("course_level", ValidateCourseLevel)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
