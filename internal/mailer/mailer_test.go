package mailer

import (
	"context"
	"errors"
	"taskManager/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func newTestSender(d dialer) *SMTPSender {
	s := NewSMTPSender(config.EmailConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		FromEmail: "noreply@example.com",
	})
	s.dialer = d
	return s
}

func TestSendOTP(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSender(d)

	require.NoError(t, s.SendOTP(context.Background(), "user@example.com", "123456"))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"user@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"noreply@example.com"}, d.sent[0].GetHeader("From"))
	assert.Contains(t, otpBody("123456"), "123456")
}

func TestSendOTP_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := NewSMTPSender(config.EmailConfig{})
		assert.ErrorIs(t, s.SendOTP(context.Background(), "user@example.com", "123456"), ErrNotConfigured)
	})

	t.Run("empty recipient", func(t *testing.T) {
		s := newTestSender(&fakeDialer{})
		assert.Error(t, s.SendOTP(context.Background(), "  ", "123456"))
	})

	t.Run("smtp failure", func(t *testing.T) {
		smtpErr := errors.New("connection refused")
		s := newTestSender(&fakeDialer{err: smtpErr})
		assert.ErrorIs(t, s.SendOTP(context.Background(), "user@example.com", "123456"), smtpErr)
	})

	t.Run("cancelled context", func(t *testing.T) {
		d := &fakeDialer{}
		s := newTestSender(d)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, s.SendOTP(ctx, "user@example.com", "123456"), context.Canceled)
		assert.Empty(t, d.sent)
	})
}
