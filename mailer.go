package reviews

import (
	"context"
)

// Mailer delivers a plain text message
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailerFunc adapts a function to the Mailer interface
type MailerFunc func(ctx context.Context, to, subject, body string) error

// Send implements Mailer
func (f MailerFunc) Send(ctx context.Context, to, subject, body string) error {
	if f == nil {
		return nil
	}
	return f(ctx, to, subject, body)
}

// LogMailer writes messages to the logger instead of sending them.
// Useful in development where codes are read from the console.
type LogMailer struct {
	From   string
	Logger Logger
}

// Send implements Mailer
func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	ResolveLogger(m.Logger).Info("mail",
		"from", m.From,
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string) error {
	return nil
}
