package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes binding errors name fields by their json tag, so
// details read "policy_number" rather than "PolicyNumber".
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})
}

// FormatValidationErrors builds the 400 envelope for a binding failure. A body
// that is not valid JSON carries no field details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Malformed request body", requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError aborts a request whose body failed to bind. Bodies
// cut off by BodyLimit get 413; everything else gets 400.
func HandleValidationError(c *gin.Context, err error) {
	if IsBodyTooLarge(err) {
		RespondBodyTooLarge(c)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

var ruleMessages = map[string]string{
	"required":    "This field is required",
	"oneof":       "Must be one of: %s",
	"gte":         "Must be greater than or equal to %s",
	"lte":         "Must be less than or equal to %s",
	"gt":          "Must be greater than %s",
	"lt":          "Must be less than %s",
	"uuid":        "Must be a UUID",
	"email":       "Must be an email address",
	"dive":        "Invalid list entry",
	"required_if": "This field is required for this action",
	"excluded_if": "This field is not allowed for this action",
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		bound := "at least "
		if fe.Tag() == "max" {
			bound = "at most "
		}
		if fe.Kind() == reflect.String {
			return "Must be " + bound + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "Must have " + bound + fe.Param() + " entries"
		}
		return "Must be " + bound + fe.Param()
	}
	msg, ok := ruleMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		return strings.Replace(msg, "%s", fe.Param(), 1)
	}
	return msg
}
