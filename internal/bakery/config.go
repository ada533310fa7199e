package bakery

import (
	"strings"
	"unicode/utf8"

	"codeberg.org/mutker/hellobakery/internal/errors"
	"github.com/go-playground/validator/v10"
)

// TargetConfig is the operator's bakery rule for one deployment target.
type TargetConfig struct {
	Interval *int   `mapstructure:"interval"`
	User     string `mapstructure:"user" validate:"required,utf8"`
	Content  string `mapstructure:"content" validate:"required,utf8"`
	// Solaris adds the ksh plugin variant for SunOS hosts.
	Solaris bool `mapstructure:"solaris"`
}

var validate = newValidator()

// newValidator adds the utf8 tag. JSON and YAML encoders replace invalid
// bytes, so such values would not survive the payload round trip.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// FieldError names a TargetConfig field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (f FieldError) String() string {
	return f.Field + " " + f.Reason
}

// Validate checks that every field required to build payloads is set.
func (c TargetConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.New().Wrap(ErrInvalidTargetConfig, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, FieldError{
			Field:  strings.ToLower(e.Field()),
			Reason: formatReason(e),
		})
	}

	return errors.New().WithData(ErrInvalidTargetConfig, fields)
}

func formatReason(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "utf8":
		return "must be valid UTF-8"
	default:
		return "failed " + e.Tag() + " validation"
	}
}
