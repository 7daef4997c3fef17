package classes

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"tutoring-service/internal/models"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// RegisterValidations adds the weekday and clock tags used by models.NewClass.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("weekday", isWeekday); err != nil {
		return err
	}
	return v.RegisterValidation("clock", isClock)
}

func isWeekday(fl validator.FieldLevel) bool {
	day := fl.Field().String()
	for _, d := range models.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

func isClock(fl validator.FieldLevel) bool {
	return clockPattern.MatchString(fl.Field().String())
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	// Both registrations are static and cannot fail.
	_ = RegisterValidations(v)
	return v
}
