package mailer

import (
	"context"
	"crypto/tls"

	"smallbiznis-rewards/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

var Module = fx.Module("mailer", fx.Provide(NewSMTPMailer))

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPMailer struct {
	cfg    config.SMTP
	dialer *mail.Dialer
}

func NewSMTPMailer(cfg *config.Config) Mailer {
	d := mail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTP.Host}
	// implicit TLS on 465, STARTTLS otherwise
	d.SSL = cfg.SMTP.Port == 465
	return &SMTPMailer{cfg: cfg.SMTP, dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	mm := mail.NewMessage()
	mm.SetHeader("From", from)
	mm.SetHeader("To", msg.To)
	mm.SetHeader("Subject", msg.Subject)
	mm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(mm); err != nil {
		zap.L().Error("failed to send email", zap.String("to", msg.To), zap.Error(err))
		return err
	}
	return nil
}
