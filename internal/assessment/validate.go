package assessment

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/neurocare/internal/scoring"
)

// SubmitRequest is the email-keyed submission body. Gender is opaque and
// stored as given, empty included.
type SubmitRequest struct {
	Name      string            `json:"name" validate:"required"`
	Email     string            `json:"email" validate:"required,email"`
	Gender    string            `json:"gender"`
	Answers   map[string]string `json:"answers" validate:"required,dive,keys,required,endkeys,likert"`
	Condition string            `json:"condition" validate:"required"`
}

// ResponsesRequest is the anonymous, auto-id submission body.
type ResponsesRequest struct {
	Answers   map[string]string `json:"answers" validate:"required,dive,keys,required,endkeys,likert"`
	Condition string            `json:"condition"`
	Gender    string            `json:"gender"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// "I Don't Know" carries a quote, so oneof cannot express the vocabulary.
	_ = v.RegisterValidation("likert", func(fl validator.FieldLevel) bool {
		return scoring.Valid(fl.Field().String())
	})
	return v
}

// toValidationError reports the first failing field.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}
	fe := verrs[0]
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "email":
		reason = "must be an email address"
	case "likert":
		reason = fmt.Sprintf("invalid answer value %q", fe.Value())
	default:
		reason = "failed " + fe.Tag()
	}
	return &ValidationError{Field: fe.Field(), Reason: reason}
}
