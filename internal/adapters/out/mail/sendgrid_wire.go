// internal/adapters/out/mail/sendgrid_wire.go
package mail

import (
	"log"
	"strings"
)

// NewOrderMailerWithSendGrid wires an OrderMailer to SendGrid.
// Missing settings are logged; sends then fail and the caller treats mail as best effort.
func NewOrderMailerWithSendGrid(apiKey, from, fromName, baseURL string) *OrderMailer {
	if strings.TrimSpace(apiKey) == "" {
		log.Printf("[mail] WARN: SENDGRID_API_KEY is empty. OrderMailer will fail to send mail.")
	}
	if strings.TrimSpace(from) == "" {
		log.Printf("[mail] WARN: MAIL_FROM is empty. OrderMailer will fail to send mail.")
	}

	client := NewSendGridClient(apiKey, from, fromName)
	mailer := NewOrderMailer(client, fromName, baseURL)

	log.Printf("[mail] OrderMailerWithSendGrid initialized. from=%s baseURL=%s", maskEmail(from), baseURL)
	return mailer
}
