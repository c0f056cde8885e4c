package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/config"
	"taskManager/internal/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("почтовый сервер не настроен")

// Sender доставляет одноразовые коды пользователям
type Sender interface {
	SendOTP(ctx context.Context, email, code string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPSender struct {
	cfg    config.EmailConfig
	dialer dialer
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}
}

func (s *SMTPSender) SendOTP(ctx context.Context, email, code string) error {
	if s.cfg.SMTPHost == "" || s.cfg.FromEmail == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("пустой получатель")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your OTP for Login - Task Manager")
	m.SetBody("text/html", otpBody(code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}

	logger.Info("Mailer: код отправлен", zap.String("to", email))
	return nil
}

func otpBody(code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 16px;">
    <h2>Task Manager - Login Verification</h2>
    <p>Your One-Time Password (OTP) for login is:</p>
    <div style="background-color: #f4f4f4; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 5px;">%s</div>
    <p>This OTP will expire in 10 minutes.</p>
    <p>If you didn't request this OTP, please ignore this email.</p>
  </div>
</body>
</html>`, code)
}
