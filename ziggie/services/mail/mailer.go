// Package mail sends lead notifications over SMTP. Delivery is a
// best-effort side channel: callers log failures and move on.
package mail

import (
	"fmt"
	"net/smtp"
	"time"

	"ziggie/ziggie/config"
	"ziggie/ziggie/sources/psql/models"
	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
)

// Notifier is what the lead controller depends on.
type Notifier interface {
	SendLeadNotification(lead *models.Lead) error
}

type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	notifyTo string
}

// NewMailer returns a disabled mailer (nil-safe, warn logged) when SMTP
// credentials are missing.
func NewMailer(cfg config.Config) *Mailer {
	if cfg.SMTPUser == "" || cfg.SMTPPass == "" || cfg.SMTPHost == "" {
		logging.AppLogger.Warn("mail service not initialized: missing EMAIL_HOST/EMAIL_USER/EMAIL_PASS")
		return nil
	}
	logging.AppLogger.Info("mail service initialized", zap.String("host", cfg.SMTPHost))
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		pass:     cfg.SMTPPass,
		notifyTo: cfg.LeadNotifyEmail,
	}
}

func (m *Mailer) SendLeadNotification(lead *models.Lead) error {
	if m == nil {
		return fmt.Errorf("mail service not configured")
	}
	if m.notifyTo == "" {
		return fmt.Errorf("no notification address configured")
	}

	phone := "N/A"
	if lead.Phone != nil {
		phone = *lead.Phone
	}
	body := fmt.Sprintf(
		"New lead captured\r\n\r\nName: %s\r\nEmail: %s\r\nPhone: %s\r\nSource: %s\r\nTime: %s\r\n",
		lead.Name, lead.Email, phone, lead.Source, time.Now().Format(time.RFC1123),
	)
	msg := fmt.Sprintf(
		"From: \"Chatbot Lead\" <%s>\r\nTo: %s\r\nSubject: New Lead: %s\r\n\r\n%s",
		m.user, m.notifyTo, lead.Name, body,
	)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(addr, auth, m.user, []string{m.notifyTo}, []byte(msg)); err != nil {
		return fmt.Errorf("send lead notification: %w", err)
	}
	logging.AppLogger.Info("lead notification email sent", zap.String("leadID", lead.ID))
	return nil
}
