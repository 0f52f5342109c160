package config

import (
	"context"

	"github.com/resend/resend-go/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// EmailSender delivers a single email. Satisfied by EmailService and by
// test fakes.
type EmailSender interface {
	SendEmail(to, subject, html string) error
}

// EmailService sends transactional email through the Resend API.
type EmailService struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func NewEmailService(lc fx.Lifecycle, cfg Config, logger *zap.Logger) *EmailService {
	service := &EmailService{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.FromEmail,
		logger: logger,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("email service initialized", zap.String("from", cfg.FromEmail))
			return nil
		},
	})
	return service
}

func (e *EmailService) SendEmail(to, subject, html string) error {
	_, err := e.client.Emails.Send(&resend.SendEmailRequest{
		From:    e.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return err
	}
	e.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
