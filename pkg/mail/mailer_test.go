package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendWhenDisabled(t *testing.T) {
	mailer := NewSMTPMailer(SMTPSettings{Enabled: false})
	err := mailer.Send(context.Background(), Message{To: []string{"buyer@example.com"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendRejectsInvalidAddresses(t *testing.T) {
	mailer := NewSMTPMailer(SMTPSettings{Enabled: true, Host: "localhost", Port: 2525, From: "noreply@dealbridge.example"})

	err := mailer.Send(context.Background(), Message{To: []string{"not an address"}})
	require.Error(t, err)

	err = mailer.Send(context.Background(), Message{From: "bogus", To: []string{"buyer@example.com"}})
	require.Error(t, err)
}

func TestBuildPayload(t *testing.T) {
	payload := string(buildPayload("a@example.com", []string{"b@example.com"}, "NDA approved", "hello"))
	require.Contains(t, payload, "Subject: NDA approved\r\n")
	require.Contains(t, payload, "\r\n\r\nhello")
}
