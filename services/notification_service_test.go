package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bidtounsi/go-bidtounsi-server/email"
	"github.com/bidtounsi/go-bidtounsi-server/global"
)

type fakeMailHandler struct {
	fail     bool
	lastTo   string
	lastBody string
}

func (f *fakeMailHandler) SendMail(ctx context.Context, from string, to string, subject string, htmlBody string, textBody string) (string, error) {
	if f.fail {
		return "", errors.New("provider unavailable")
	}
	f.lastTo = to
	f.lastBody = htmlBody
	return "msg-1", nil
}

func setupMailConfig(t *testing.T) *fakeMailHandler {
	global.Conf.SmtpServers = []*global.SmtpServerConfig{
		{Provider: "fake", Domain: "mail.bidtounsi.test", From: "noreply@bidtounsi.test"},
	}
	global.Conf.Admin.TrustedEmail = "trusted@bidtounsi.test"

	handler := &fakeMailHandler{}
	email.Register("mail.bidtounsi.test", handler)
	t.Cleanup(email.UnregisterAllHandlers)
	return handler
}

func TestRequestKeyMailGoesToTrustedMailbox(t *testing.T) {
	handler := setupMailConfig(t)
	ns := NewNotificationService(nil)

	delivered := ns.SendRequestKeyMail(context.Background(), "someone@example.com", "BIDTOUNSI_A1B2C3D4E5F6_XYZ789")
	assert.True(t, delivered)

	// the key never goes to the requester, only to the trusted mailbox
	assert.Equal(t, "trusted@bidtounsi.test", handler.lastTo)
	assert.Contains(t, handler.lastBody, "someone@example.com")
	assert.Contains(t, handler.lastBody, "BIDTOUNSI_A1B2C3D4E5F6_XYZ789")
}

func TestAdminKeyMailGoesToAdmin(t *testing.T) {
	handler := setupMailConfig(t)
	ns := NewNotificationService(nil)

	delivered := ns.SendAdminKeyMail(context.Background(), "newadmin@example.com", "Sami", "BT-ABCDEF12-01234567-89ABCDEF")
	assert.True(t, delivered)
	assert.Equal(t, "newadmin@example.com", handler.lastTo)
	assert.Contains(t, handler.lastBody, "BT-ABCDEF12-01234567-89ABCDEF")
}

func TestDeliveryFailureReportedNotFatal(t *testing.T) {
	handler := setupMailConfig(t)
	handler.fail = true
	ns := NewNotificationService(nil)

	delivered := ns.SendRequestKeyMail(context.Background(), "someone@example.com", "BIDTOUNSI_A1B2C3D4E5F6_XYZ789")
	assert.False(t, delivered)
}

func TestNoHandlerRegistered(t *testing.T) {
	global.Conf.SmtpServers = []*global.SmtpServerConfig{
		{Provider: "fake", Domain: "unregistered.test", From: "noreply@bidtounsi.test"},
	}
	ns := NewNotificationService(nil)

	delivered := ns.SendAdminKeyMail(context.Background(), "newadmin@example.com", "Sami", "BT-ABCDEF12-01234567-89ABCDEF")
	assert.False(t, delivered)
}
