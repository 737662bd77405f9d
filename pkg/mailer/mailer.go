// Package mailer delivers the weekly recommendation by SMTP. Transport
// details beyond plain AUTH + STARTTLS are out of scope.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"
)

// Mailer sends a formatted recommendation email.
type Mailer interface {
	Send(subject, htmlBody string) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type smtpMailer struct {
	cfg Config
}

// New creates an SMTP-backed mailer.
func New(cfg Config) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(subject, htmlBody string) error {
	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + m.cfg.To + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{m.cfg.To}, []byte(msg.String())); err != nil {
		return eris.Wrap(err, "mailer: send")
	}
	return nil
}
