package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bidtounsi/go-bidtounsi-server/email"
	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

const sendMailTimeout = 15 * time.Second

// NotificationService delivers admin key mail. Delivery failures are reported
// as a boolean (the mail channel is best-effort), never as an error: key
// issuance must not fail because the mail provider is down.
type NotificationService struct {
	env *types.Environment
}

func NewNotificationService(env *types.Environment) *NotificationService {
	return &NotificationService{env: env}
}

// SendRequestKeyMail delivers a freshly minted request key. The mail always
// goes to the configured trusted mailbox, never to the requester; the
// requester's identity is carried in the body so the operator can decide
// whether to forward the key out of band.
func (ns *NotificationService) SendRequestKeyMail(ctx context.Context, requesterEmail string, key string) bool {
	subject := "BidTounsi - Nouvelle demande de clé administrateur"
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
		<h2>Demande de clé administrateur</h2>
		<p>Une clé d'accès a été demandée pour : <strong>%s</strong></p>
		<p>Clé (valide %d heures, usage unique) :</p>
		<p style="font-size: 18px; font-weight: bold; letter-spacing: 1px;">%s</p>
		<p>Si cette demande n'est pas légitime, ignorez ce message ; la clé expirera d'elle-même.</p>
	</div>`, requesterEmail, int(global.Conf.Admin.RequestKeyTTL().Hours()), key)
	text := fmt.Sprintf("Demande de clé administrateur pour %s\nClé (usage unique) : %s", requesterEmail, key)

	return ns.deliver(ctx, global.Conf.Admin.TrustedEmail, subject, html, text)
}

// SendAdminKeyMail delivers a long-lived admin key to the admin it belongs to
func (ns *NotificationService) SendAdminKeyMail(ctx context.Context, adminEmail string, name string, key string) bool {
	subject := "BidTounsi - Votre clé administrateur"
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
		<h2>Bienvenue %s</h2>
		<p>Votre compte administrateur BidTounsi a été créé.</p>
		<p>Votre clé administrateur (valide %d jours) :</p>
		<p style="font-size: 18px; font-weight: bold; letter-spacing: 1px;">%s</p>
		<p>Conservez cette clé en lieu sûr et ne la partagez avec personne.</p>
	</div>`, name, int(global.Conf.Admin.AdminKeyTTL().Hours()/24), key)
	text := fmt.Sprintf("Bonjour %s,\nVotre clé administrateur BidTounsi : %s", name, key)

	return ns.deliver(ctx, adminEmail, subject, html, text)
}

// deliver sends through the first configured SMTP handler with a bounded
// timeout. On failure it enqueues a redelivery task and reports false.
func (ns *NotificationService) deliver(ctx context.Context, to string, subject string, html string, text string) bool {
	if len(global.Conf.SmtpServers) == 0 {
		global.Logger.Log("level", "error", "msg", "no smtp servers configured")
		return false
	}
	smtpConf := global.Conf.SmtpServers[0]
	handler := email.GetHandler(smtpConf.Domain)
	if handler == nil {
		global.Logger.Log("level", "error", "msg", "no smtp handler registered", "domain", smtpConf.Domain)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendMailTimeout)
	defer cancel()

	_, err := handler.SendMail(sendCtx, smtpConf.From, to, subject, html, text)
	if err == nil {
		return true
	}
	global.Logger.Log("level", "error", "msg", "mail delivery failed", "to", to, "err", err.Error())
	ns.enqueueRedelivery(to, smtpConf.From, subject, html, text)
	return false
}

func (ns *NotificationService) enqueueRedelivery(to string, from string, subject string, html string, text string) {
	if ns.env == nil || ns.env.TaskClient == nil {
		return
	}
	task, err := types.NewEmailSendTask(&types.EmailTask{
		ID:      uuid.NewString(),
		From:    from,
		To:      to,
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	if err != nil {
		global.Logger.Log("level", "error", "msg", "failed to create redelivery task", "err", err.Error())
		return
	}
	if _, qErr := ns.env.TaskClient.Enqueue(task); qErr != nil {
		global.Logger.Log("level", "error", "msg", "failed to enqueue redelivery task", "err", qErr.Error())
	}
}
