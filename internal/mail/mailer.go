package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/Spottie97/PP-Food-Fair/internal/config"
	applog "github.com/Spottie97/PP-Food-Fair/internal/log"
)

// Mailer sends transactional mail through the configured SMTP relay. Delivery
// is best-effort: callers log failures and carry on, the request path never
// blocks on a mail server.
type Mailer struct {
	cfg  config.SMTPConfig
	send func(*gomail.Message) error
}

// New builds a Mailer from SMTP configuration. The returned Mailer is inert
// when no host is configured.
func New(cfg config.SMTPConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{
		cfg: cfg,
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
}

// Enabled reports whether the mailer has a configured relay.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Enabled()
}

// SendWelcome delivers the account welcome mail.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	if !m.Enabled() {
		applog.Debug(ctx, "mail disabled, skipping welcome mail", "to", to)
		return nil
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = "there"
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour PP Food Fair account is ready. Add your ingredient costs and recipes, and we'll keep the per-pie pricing up to date for you.\n",
		displayName,
	)

	return m.deliver(ctx, to, "Welcome to PP Food Fair", body)
}

// SendPriceSheet delivers a recipe price summary to the given address.
func (m *Mailer) SendPriceSheet(ctx context.Context, to, subject, body string) error {
	if !m.Enabled() {
		applog.Debug(ctx, "mail disabled, skipping price sheet", "to", to)
		return nil
	}
	return m.deliver(ctx, to, subject, body)
}

func (m *Mailer) deliver(ctx context.Context, to, subject, body string) error {
	message := gomail.NewMessage()
	message.SetHeader("From", m.cfg.From)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	if err := m.send(message); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	applog.Debug(ctx, "mail delivered", "to", to, "subject", subject)
	return nil
}
