package validation

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Course codes are short uppercase identifiers like CS101 or MATH2040.
var courseCodeRegexp = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,11}$`)

func validCourseCode(fl validator.FieldLevel) bool {
	return courseCodeRegexp.MatchString(fl.Field().String())
}

// Register installs custom binding rules on gin's validator engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("coursecode", validCourseCode)
	}
}
