package notifications

import "context"

type SendRegistrationConfirmationInput struct {
	Email    string
	Name     string
	Event    string
	UniqueID string
}

type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, input SendRegistrationConfirmationInput) error
}
