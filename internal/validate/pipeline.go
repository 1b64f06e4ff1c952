package validate

import (
	"fmt"
	"strings"

	"github.com/yuktifest/yukti-backend/internal/domain/event"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
)

// Violation is a user-facing validation failure. The message text is
// part of the API contract with the registration form.
type Violation struct {
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

func fail(msg string) *Violation {
	return &Violation{Message: msg}
}

// Request runs the field-level checks that need no store access:
// required fields, payment completeness and the solo USN rule.
// Checks run in order and stop at the first failure.
func Request(req registration.CreateRegistrationRequest) *Violation {
	isGroup := event.IsGroup(req.Event)

	name := req.DisplayName(isGroup)

	if req.Event == "" || name == "" || req.College == "" || req.Department == "" ||
		req.Year == "" || req.Email == "" || req.Phone == "" {
		return fail("All required fields must be filled!")
	}

	if req.Payment.TransactionID == "" || req.Payment.Amount == 0 || req.Payment.Method == "" {
		return fail("All payment details are required!")
	}

	if !isGroup && strings.TrimSpace(req.USN) == "" {
		return fail("USN is required for solo events!")
	}

	return nil
}

// Group runs the member-list checks for group events. It is a no-op for
// solo events. Runs after the store-backed duplicate checks, keeping
// the original failure order.
func Group(req registration.CreateRegistrationRequest) *Violation {
	limits, ok := event.Limits(req.Event)

	if !ok || limits.Max <= 1 {
		return nil
	}

	if len(req.Members) < limits.Min || len(req.Members) > limits.Max {
		return fail(fmt.Sprintf("%s requires between %d and %d members.", req.Event, limits.Min, limits.Max))
	}

	for _, m := range req.Members {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.USN) == "" {
			return fail("Each group member must have a name and USN.")
		}
	}

	return nil
}
