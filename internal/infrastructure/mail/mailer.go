package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/taskhive/task-api/internal/infrastructure/config"
)

// Mailer sends account lifecycle emails over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) SendWelcome(email, name string) error {
	body := fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with it.", name)
	return m.send(email, "Thanks for joining in!", body)
}

func (m *Mailer) SendCancellation(email, name string) error {
	body := fmt.Sprintf("Goodbye, %s. Is there anything we could have done to keep you on board?", name)
	return m.send(email, "Sorry to see you go", body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
