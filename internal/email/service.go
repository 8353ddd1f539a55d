package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-rbac/internal/config"
)

type Service interface {
	SendWelcome(ctx context.Context, to, name, username string) error
}

// Dialer is the subset of gomail.Dialer used here.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer Dialer
	from   string
}

// NewService returns an SMTP backed sender, or a no-op sender when no host is configured.
func NewService(cfg config.SMTPConfig) Service {
	if cfg.Host == "" {
		return noopService{}
	}
	return NewSMTPService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

func NewSMTPService(dialer Dialer, from string) Service {
	return &smtpService{dialer: dialer, from: from}
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to the clinic portal")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour account %q has been created. You can now sign in to book and review appointments.\n",
		name, username,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

type noopService struct{}

func (noopService) SendWelcome(ctx context.Context, to, _, _ string) error {
	log.Ctx(ctx).Debug().Str("to", to).Msg("smtp disabled, welcome email skipped")
	return nil
}
