package api

import (
	"fmt"
	"strings"
)

// ValidationError represents a request validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateCredentials checks a registration or login payload.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "Email is required"}
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return ValidationError{Field: "email", Message: "Invalid email address"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	if len(password) > 72 {
		// bcrypt truncates past 72 bytes
		return ValidationError{Field: "password", Message: "Password must be at most 72 characters"}
	}
	return nil
}

// ValidateNamedUpload checks a named CSV upload payload.
func ValidateNamedUpload(name, csv string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Message: "Name is required"}
	}
	if len(name) > 120 {
		return ValidationError{Field: "name", Message: "Name must be at most 120 characters"}
	}
	if strings.TrimSpace(csv) == "" {
		return ValidationError{Field: "csv", Message: "CSV content is required"}
	}
	return nil
}
