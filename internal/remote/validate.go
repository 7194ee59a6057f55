package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/newsboard/internal/apperr"
	"github.com/emilythestrangee/newsboard/internal/models"
)

// The request types carry gin "binding" tags; the same rules are checked here
// before anything leaves the process.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	return v
}

func (c *Client) check(in any) error {
	err := c.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return apperr.Wrap(apperr.KindValidation, "invalid input", err)
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, describe(f))
	}
	return apperr.Validation(strings.Join(msgs, "; "))
}

func describe(f validator.FieldError) string {
	field := strings.ToLower(f.Field())
	switch f.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, f.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, f.Param())
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid url"
	case "eqfield":
		return "passwords do not match"
	default:
		return fmt.Sprintf("%s failed %s", field, f.Tag())
	}
}

func (c *Client) checkPost(in *models.PostCreate) error {
	if err := in.Normalize(); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid post", err)
	}
	return c.check(in)
}

func (c *Client) checkSignup(in *models.Signup) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.ConfirmPassword != in.Password {
		return apperr.Validation("passwords do not match")
	}
	return c.check(in)
}

// ValidateContent trims comment content and checks its bounds.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("content is required")
	}
	if n := len([]rune(content)); n > models.MaxCommentLength {
		return "", apperr.Validation(fmt.Sprintf("content must be at most %d characters, got %d", models.MaxCommentLength, n))
	}
	return content, nil
}
