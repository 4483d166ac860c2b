package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/sebastiangaticacl/stvaldivia/internal/config"

	"github.com/jordan-wright/email"
)

// ErrMailerNotConfigured means SMTP_HOST is empty. Alert mail is optional;
// callers should log and move on.
var ErrMailerNotConfigured = errors.New("smtp host not configured")

// Mailer sends plain-text mail with optional attachments (close report PDFs).
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Send delivers a plain-text mail, attaching attachPath when non-empty.
func (m *Mailer) Send(to []string, subject, body, attachPath string) error {
	if m.host == "" {
		return ErrMailerNotConfigured
	}

	e := email.NewEmail()
	e.From = m.user
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)
	if attachPath != "" {
		if _, err := e.AttachFile(attachPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	return e.Send(m.addr, smtp.PlainAuth("", m.user, m.password, m.host))
}
