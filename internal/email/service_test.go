package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-rbac/internal/config"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSendWelcome(t *testing.T) {
	d := &captureDialer{}
	svc := NewSMTPService(d, "clinic@example.com")

	require.NoError(t, svc.SendWelcome(context.Background(), "pat@example.com", "Pat", "pat"))
	require.Len(t, d.sent, 1)

	assert.Equal(t, []string{"pat@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"clinic@example.com"}, d.sent[0].GetHeader("From"))

	var buf bytes.Buffer
	_, err := d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Hello Pat")
}

func TestSendWelcomeError(t *testing.T) {
	d := &captureDialer{err: errors.New("smtp down")}
	svc := NewSMTPService(d, "clinic@example.com")

	assert.Error(t, svc.SendWelcome(context.Background(), "pat@example.com", "Pat", "pat"))
}

func TestNewServiceWithoutHostIsNoop(t *testing.T) {
	svc := NewService(config.SMTPConfig{})
	assert.NoError(t, svc.SendWelcome(context.Background(), "x@example.com", "X", "x"))
}
