package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates the phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates the phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrInvalidLength indicates the phone number is not a 10-digit number
	ErrInvalidLength = errors.New("phone number must be 10 digits")

	// ErrInvalidAreaCode indicates the area code starts with 0 or 1
	ErrInvalidAreaCode = errors.New("phone number has an invalid area code")
)

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles US phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a US phone number.
// Accepts formats like 5551234567, (555) 123-4567, +1 555 123 4567.
// Returns the sanitized 10-digit number and an error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}

	// NANP area codes and exchange codes cannot start with 0 or 1
	if sanitized[0] == '0' || sanitized[0] == '1' {
		return "", ErrInvalidAreaCode
	}

	return sanitized, nil
}

// Sanitize removes separators and a leading US country code
func (v *PhoneValidator) Sanitize(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")

	// Drop country code if present (1)
	if strings.HasPrefix(phone, "1") && len(phone) == 11 {
		phone = phone[1:]
	}

	return phone
}

// Format formats a phone number in the standard display format: (XXX) XXX-XXXX
func (v *PhoneValidator) Format(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("(%s) %s-%s",
		sanitized[0:3],
		sanitized[3:6],
		sanitized[6:10],
	), nil
}

// E164 returns the validated number in E.164 form (+1XXXXXXXXXX)
func (v *PhoneValidator) E164(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}
	return "+1" + sanitized, nil
}
