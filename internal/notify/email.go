package notify

import (
	"fmt"
	"net/smtp"

	"ms-marketplace/internal/config"
)

// Mailer sends plain-text notification emails over SMTP.
type Mailer struct {
	cfg config.EmailConfig
}

func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether SMTP credentials are configured. Without them the
// worker runs in log-only mode.
func (m *Mailer) Enabled() bool {
	return m.cfg.SMTPUsername != "" && m.cfg.SMTPPassword != ""
}

func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp credentials not configured")
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		m.cfg.SMTPUsername, to, subject, body,
	))

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	return smtp.SendMail(addr, auth, m.cfg.SMTPUsername, []string{to}, msg)
}
