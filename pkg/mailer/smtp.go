package mailer

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
	Sender string
}

func NewSMTP(host string, port int, user, password, sender string) *SMTP {
	return &SMTP{dialer: gomail.NewDialer(host, port, user, password), Sender: sender}
}

func (s *SMTP) Send(ctx context.Context, to, subject, text, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.Sender)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}
	return s.dialer.DialAndSend(m)
}

var (
	_ Sender = (*SMTP)(nil)
	_ Sender = (*Mailgun)(nil)
)
