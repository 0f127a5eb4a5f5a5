package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/bidtounsi/go-bidtounsi-server/email"
	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

// EmailQueue processes queued outbound mail (contact messages and key
// redelivery). Returning an error makes asynq retry with backoff.
type EmailQueue struct {
	env *types.Environment
}

func NewEmailQueue(env *types.Environment) *EmailQueue {
	return &EmailQueue{env: env}
}

func (eq *EmailQueue) ProcessEmailSendTask(ctx context.Context, t *asynq.Task) error {
	var mail types.EmailTask
	if err := json.Unmarshal(t.Payload(), &mail); err != nil {
		// malformed payload will never succeed, skip retries
		return fmt.Errorf("failed to unmarshal email task: %v: %w", err, asynq.SkipRetry)
	}

	domain := ""
	if len(global.Conf.SmtpServers) > 0 {
		domain = global.Conf.SmtpServers[0].Domain
	}
	handler := email.GetHandler(domain)
	if handler == nil {
		return fmt.Errorf("no smtp handler registered for domain %s: %w", domain, asynq.SkipRetry)
	}

	id, err := handler.SendMail(ctx, mail.From, mail.To, mail.Subject, mail.Html, mail.Text)
	if err != nil {
		global.Logger.Log("level", "error", "msg", "queued mail delivery failed", "taskId", mail.ID, "err", err.Error())
		return err
	}
	global.Logger.Log("level", "info", "msg", "queued mail delivered", "taskId", mail.ID, "messageId", id)
	return nil
}
