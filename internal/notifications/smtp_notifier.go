package notifications

import (
	"context"
	"fmt"
	"net/smtp"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

// SMTPNotifier sends the confirmation mail through a plain SMTP
// account (a Gmail app password in the original deployment).
type SMTPNotifier struct {
	cfg SMTPConfig
	// swappable for tests; net/smtp has no context support
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) SendRegistrationConfirmation(ctx context.Context, in SendRegistrationConfirmationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if n.cfg.Host == "" || n.cfg.Username == "" || n.cfg.Password == "" {
		return fmt.Errorf("smtp not configured")
	}

	subject := "Registration Confirmation - " + in.Event

	body := fmt.Sprintf(`<h2>Registration Successful</h2>
<p>Hello %s,</p>
<p>You have successfully registered for the <strong>%s</strong> event at Yukti Fest.</p>
<p>Your registration ID is <strong>%s</strong>. Keep it handy at the venue.</p>
<br/>
<p>Regards,<br/>Yukti Fest Organizing Team</p>`, in.Name, in.Event, in.UniqueID)

	from := fmt.Sprintf("%q <%s>", n.cfg.FromName, n.cfg.Username)

	msg := "From: " + from + "\r\n" +
		"To: " + in.Email + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n"

	addr := n.cfg.Host + ":" + n.cfg.Port
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	return n.send(addr, auth, n.cfg.Username, []string{in.Email}, []byte(msg))
}
