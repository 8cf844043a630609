package memberauth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// validate holds the struct validator shared by all engines. Tag-driven
// rules live on RequiredFields; rules that depend on configuration or
// principal type are applied manually below.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequiredFields checks the second wizard stage and reports every
// violated rule at once.
func (e *Engine) validateRequiredFields(principalType string, fields RequiredFields) error {
	var violations []string

	if err := validate.Struct(fields); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			violations = append(violations, requiredFieldMessage(fe))
		}
	}

	minUser := e.config.Registration.MinUsernameLength
	if fields.Username != "" && utf8.RuneCountInString(fields.Username) < minUser {
		violations = append(violations, fmt.Sprintf("username must be at least %d characters", minUser))
	}

	minPass := e.config.Registration.MinPasswordLength
	if fields.Password != "" && utf8.RuneCountInString(fields.Password) < minPass {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters", minPass))
	}

	if principalType == UserTypeClub || principalType == UserTypePartner {
		if fields.BusinessName == "" {
			violations = append(violations, "business name is required")
		}
	} else {
		if fields.FullName == "" {
			violations = append(violations, "full name is required")
		}
	}

	if requiresAttachments(principalType) && !fields.PrivacyAccepted {
		violations = append(violations, "privacy policy must be accepted")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// validateOptionalFields checks the final wizard stage. Player and coach
// registrations must carry both attachments; every type is subject to the
// configured attachment size bound.
func (e *Engine) validateOptionalFields(principalType string, fields OptionalFields) error {
	var violations []string

	if requiresAttachments(principalType) {
		if fields.Photo == nil || len(fields.Photo.Data) == 0 {
			violations = append(violations, "profile photo is required")
		}
		if fields.Document == nil || len(fields.Document.Data) == 0 {
			violations = append(violations, "verification document is required")
		}
	}

	maxSize := e.config.Registration.MaxAttachmentSize
	if maxSize > 0 {
		if fields.Photo != nil && int64(len(fields.Photo.Data)) > maxSize {
			violations = append(violations, "profile photo exceeds the maximum attachment size")
		}
		if fields.Document != nil && int64(len(fields.Document.Data)) > maxSize {
			violations = append(violations, "verification document exceeds the maximum attachment size")
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func requiredFieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Username":
		return "username is required"
	case "Email":
		if fe.Tag() == "email" {
			return "email is not a valid address"
		}
		return "email is required"
	case "Password":
		return "password is required"
	case "ConfirmPassword":
		return "password confirmation does not match"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
