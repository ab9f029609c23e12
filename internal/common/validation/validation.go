package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func (vr *ValidationResult) add(field, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
}

// NewResult starts a passing result; validators flip it on first error.
func NewResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword enforces the account password policy.
func ValidatePassword(password string) []string {
	var reasons []string
	if len(password) < 8 {
		reasons = append(reasons, "must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		reasons = append(reasons, "must be at most 72 characters")
	}
	if !strings.ContainsAny(password, "0123456789") {
		reasons = append(reasons, "must contain a digit")
	}
	return reasons
}

// CheckCredentials validates a signup/login payload.
func CheckCredentials(email, password string) *ValidationResult {
	result := NewResult()
	if strings.TrimSpace(email) == "" {
		result.add("email", "required field missing", "REQUIRED_FIELD_MISSING")
	} else if !ValidateEmail(email) {
		result.add("email", "invalid email format", "INVALID_EMAIL")
	}
	if password == "" {
		result.add("password", "required field missing", "REQUIRED_FIELD_MISSING")
	} else {
		for _, reason := range ValidatePassword(password) {
			result.add("password", reason, "WEAK_PASSWORD")
		}
	}
	return result
}

// CheckWasteRecord validates a waste record payload before persistence.
// The logged date is accepted as 2006-01-02.
func CheckWasteRecord(foodItem string, quantityKg float64, loggedOn string) *ValidationResult {
	result := NewResult()
	if strings.TrimSpace(foodItem) == "" {
		result.add("food_item", "required field missing", "REQUIRED_FIELD_MISSING")
	} else if len(foodItem) > 200 {
		result.add("food_item", "value must be at most 200 characters", "MAX_LENGTH_VIOLATION")
	}
	if quantityKg <= 0 {
		result.add("quantity_kg", "value must be > 0", "MINIMUM_VIOLATION")
	}
	if loggedOn == "" {
		result.add("logged_on", "required field missing", "REQUIRED_FIELD_MISSING")
	} else if _, err := ParseDate(loggedOn); err != nil {
		result.add("logged_on", "invalid date, expected YYYY-MM-DD", "INVALID_DATE")
	}
	return result
}

// ParseDate parses the wire date format used for waste records.
func ParseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
