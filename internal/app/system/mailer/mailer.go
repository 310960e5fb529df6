// Package mailer sends transactional email: the signup welcome and the
// password-reset link. Sending happens off the request goroutine; a
// delivery failure is logged and recorded, never surfaced to the user
// who triggered it.
package mailer

import (
	"context"
	"fmt"
	"time"

	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Email is one outbound message with both text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// SMTP sends through an SMTP relay.
type SMTP struct {
	client   *mail.Client
	fromName string
	fromAddr string
}

// NewSMTP builds the relay client. username may be empty for
// unauthenticated dev relays (mailhog, mailtrap without auth).
func NewSMTP(host string, port int, username, password, fromName, fromAddr string) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(10 * time.Second),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{client: client, fromName: fromName, fromAddr: fromAddr}, nil
}

func (s *SMTP) Send(ctx context.Context, e Email) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddr); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextPlain, e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	}
	return s.client.DialAndSendWithContext(ctx, msg)
}

// Observer records delivery outcomes, e.g. onto a Prometheus counter.
type Observer func(kind, status string)

// Mailer composes and dispatches the application's emails.
type Mailer struct {
	sender  Sender
	site    string
	log     *zap.Logger
	observe Observer
}

// New wires a Mailer. observe may be nil.
func New(sender Sender, siteName string, logger *zap.Logger, observe Observer) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observe == nil {
		observe = func(string, string) {}
	}
	return &Mailer{sender: sender, site: siteName, log: logger, observe: observe}
}

// SendWelcome greets a new account. Fire and forget.
func (m *Mailer) SendWelcome(to, name string) {
	m.dispatch("welcome", BuildWelcomeEmail(WelcomeEmailData{
		SiteName: m.site,
		Name:     name,
	}), to)
}

// SendPasswordReset mails the raw reset token link. Fire and forget;
// the caller has already stored the hashed token.
func (m *Mailer) SendPasswordReset(to, resetURL string, expiresIn time.Duration) {
	m.dispatch("password_reset", BuildPasswordResetEmail(PasswordResetEmailData{
		SiteName:  m.site,
		ResetURL:  resetURL,
		ExpiresIn: fmt.Sprintf("%d minutes", int(expiresIn.Minutes())),
	}), to)
}

func (m *Mailer) dispatch(kind string, e Email, to string) {
	e.To = to
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := m.sender.Send(ctx, e); err != nil {
			m.observe(kind, "failed")
			m.log.Error("email delivery failed",
				zap.String("kind", kind),
				zap.String("to", to),
				zap.Error(err))
			return
		}
		m.observe(kind, "sent")
		m.log.Info("email sent", zap.String("kind", kind), zap.String("to", to))
	}()
}
