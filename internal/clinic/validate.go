package clinic

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError reports a malformed input field. It is surfaced to the
// caller as a rejected request, never logged as a server fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

const minPhoneLen = 10

func validateBookingRequest(req BookingRequest) error {
	if strings.TrimSpace(req.FullName) == "" {
		return invalid("fullName", "must not be empty")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return invalid("email", "must be a well-formed address")
	}
	if len(strings.TrimSpace(req.Phone)) < minPhoneLen {
		return invalid("phone", fmt.Sprintf("must be at least %d characters", minPhoneLen))
	}
	if strings.TrimSpace(req.Reason) == "" {
		return invalid("reason", "must not be empty")
	}
	if req.AppointmentTime.IsZero() {
		return invalid("appointmentTime", "must be a valid date-time")
	}
	return nil
}
