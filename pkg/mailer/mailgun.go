package mailer

import (
	"context"
	"strings"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends mail through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	Sender string
}

// NewMailgun builds a sender for domain. region "eu" selects the EU API endpoint; anything else uses the US one.
func NewMailgun(domain, apiKey, sender, region string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if strings.EqualFold(region, "eu") {
		client.SetAPIBase(mg.APIBaseEU)
	}
	return &Mailgun{client: client, Sender: sender}
}

// Send sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	msg.SetTracking(false)
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
