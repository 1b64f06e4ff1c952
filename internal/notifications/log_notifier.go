package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier stands in for the mailer when SMTP is not configured
// (local dev, CI).
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendRegistrationConfirmation(ctx context.Context, in SendRegistrationConfirmationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.registration_confirmation",
		"email", in.Email,
		"name", in.Name,
		"event", in.Event,
		"unique_id", in.UniqueID,
	)
	return nil
}
