// Package mail sends transactional email.
package mail

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/observability"

	"gopkg.in/gomail.v2"
)

// Message is one outgoing mail.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// dialer is the part of gomail.Dialer the SMTP mailer uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
}

// NewSMTPMailer creates a mailer for host:port with optional credentials.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		observability.MailsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	observability.MailsSent.WithLabelValues("sent").Inc()
	return nil
}

// LogMailer writes mail to the application log instead of sending it. It
// is used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	middleware.Logger.InfoContext(ctx, "mail not sent (no SMTP host configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	observability.MailsSent.WithLabelValues("logged").Inc()
	return nil
}

// New picks the SMTP mailer when host is set and the log mailer otherwise.
func New(host string, port int, username, password, from string) Mailer {
	if strings.TrimSpace(host) == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(host, port, username, password, from)
}

var verificationHTML = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333">
<h2>Hello {{.Username}},</h2>
<p>Use this code to verify your email address:</p>
<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes.</p>
</body></html>`))

// VerificationMessage builds the mail carrying an email verification code.
func VerificationMessage(to, username, code string, minutes int) (Message, error) {
	var html strings.Builder
	err := verificationHTML.Execute(&html, struct {
		Username string
		Code     string
		Minutes  int
	}{username, code, minutes})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Verify your email address",
		Text:    fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n", username, code, minutes),
		HTML:    html.String(),
	}, nil
}
