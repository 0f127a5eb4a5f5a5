package mailgun

import (
	"context"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/bidtounsi/go-bidtounsi-server/email"
	"github.com/bidtounsi/go-bidtounsi-server/global"
)

// MailgunHandler sends mail through the Mailgun HTTP API
type MailgunHandler struct {
	domain string
	apiKey string
}

func NewMailgunHandler(domain string, apiKey string) *MailgunHandler {
	return &MailgunHandler{domain: domain, apiKey: apiKey}
}

func (m *MailgunHandler) SendMail(ctx context.Context, from string, to string, subject string, htmlBody string, textBody string) (string, error) {
	client := mg.NewMailgun(m.domain, m.apiKey)
	message := client.NewMessage(from, subject, textBody, to)
	if htmlBody != "" {
		message.SetHtml(htmlBody)
	}
	resp, id, err := client.Send(ctx, message)
	if err != nil {
		global.Logger.Log("level", "error", "msg", "mailgun send failed", "to", to, "err", err.Error())
		return "", err
	}
	global.Logger.Log("level", "info", "msg", "mail sent", "id", id, "resp", resp)
	return id, nil
}

// RegisterMailgunHandler registers a mailgun handler for the domain
func RegisterMailgunHandler(domain string, apiKey string) {
	email.Register(domain, NewMailgunHandler(domain, apiKey))
}
