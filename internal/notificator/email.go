package notificator

import (
	"fmt"
	"net/smtp"

	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// EmailNotificator sends paid-crawl notifications to the publisher's
// configured address over SMTP.
type EmailNotificator struct {
	logger *logger.Logger

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string

	SMTPAuth smtp.Auth

	recipient string
}

// NewEmailNotificator creates a notificator sending to the given recipient.
func NewEmailNotificator(logger *logger.Logger, host string, port int, user, password, sender, recipient string) *EmailNotificator {
	auth := smtp.PlainAuth(
		"",
		user,
		password,
		host,
	)

	return &EmailNotificator{
		logger:       logger,
		SMTPAuth:     auth,
		SMTPHost:     host,
		SMTPPort:     port,
		SMTPUser:     user,
		SMTPPassword: password,
		SMTPSender:   sender,
		recipient:    recipient,
	}
}

// SendNotification sends one message to the configured recipient.
func (e *EmailNotificator) SendNotification(message string) {
	addr := fmt.Sprintf("%s:%d", e.SMTPHost, e.SMTPPort)
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		e.SMTPSender,
		e.recipient,
		"Paid crawl",
		message,
	)
	if err := smtp.SendMail(addr, e.SMTPAuth, e.SMTPSender, []string{e.recipient}, []byte(msg)); err != nil {
		e.logger.Error("Failed to send email: ", err)
	}
}
