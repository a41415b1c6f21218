package main

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/go-mail/mail/v2"
)

//go:embed templates
var templateFS embed.FS

var otpTemplate = template.Must(template.ParseFS(templateFS, "templates/otp.tmpl"))

type otpSender interface {
	sendOTP(to, code string, validFor time.Duration) error
}

type mailer struct {
	dialer   *mail.Dialer
	sender   string
	attempts int
}

func newMailer(host string, port int, username string, password string, sender string, attempts int) *mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second
	if attempts < 1 {
		attempts = 1
	}
	return &mailer{
		dialer:   dialer,
		sender:   sender,
		attempts: attempts,
	}
}

func (m *mailer) sendOTP(to, code string, validFor time.Duration) error {
	data := struct {
		Code     string
		ValidFor string
	}{
		Code:     code,
		ValidFor: validFor.String(),
	}
	return m.send(to, otpTemplate, data)
}

func (m *mailer) send(to string, tmpl *template.Template, data any) error {
	var subject bytes.Buffer
	err := tmpl.ExecuteTemplate(&subject, "subject", data)
	if err != nil {
		return err
	}
	var plainBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&plainBody, "plainBody", data)
	if err != nil {
		return err
	}
	var htmlBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	for i := 0; i < m.attempts; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}
