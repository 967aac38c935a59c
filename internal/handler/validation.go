package handler

import (
	"errors"
	"fmt"
	"net/http"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ikiraha/backend/internal/model"
)

// RegisterValidators installs the custom rules on gin's binding engine.
// Call once at startup, before the router is built.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine")
	}
	if err := v.RegisterValidation("passwd", passwordRule); err != nil {
		return err
	}
	return v.RegisterValidation("name", nameRule)
}

// passwordRule requires at least one uppercase letter, one lowercase letter
// and one digit. Length is handled by min/max tags.
func passwordRule(fl validator.FieldLevel) bool {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

// nameRule restricts person names to letters, spaces, hyphens and apostrophes.
func nameRule(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

// bindJSON decodes and validates the request body. On failure it writes the
// 400 envelope with a structured field error list and reports false.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fieldErrors := make([]model.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fieldErrors = append(fieldErrors, model.FieldError{
					Field:   fe.Field(),
					Message: validationMessage(fe),
				})
			}
			c.JSON(http.StatusBadRequest, model.ValidationFailed(fieldErrors))
			return false
		}
		c.JSON(http.StatusBadRequest, model.Fail("Invalid JSON format"))
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "passwd":
		return "must contain at least one uppercase letter, one lowercase letter, and one number"
	case "name":
		return "may only contain letters, spaces, hyphens and apostrophes"
	case "e164":
		return "must be a valid phone number"
	case "url":
		return "must be a valid URL"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation on %s", fe.Tag())
	}
}
