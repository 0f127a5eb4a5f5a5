package types

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

var (
	QueueTypeEmailSend = "email:send"
)

// EmailTask is a queued outbound mail (contact messages, key redelivery attempts)
type EmailTask struct {
	ID      string `json:"id"` // correlation id
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

func NewEmailSendTask(mail *EmailTask) (*asynq.Task, error) {
	payload, err := json.Marshal(mail)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(QueueTypeEmailSend, payload), nil
}
