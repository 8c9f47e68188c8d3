// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultSendGridHost = "https://api.sendgrid.com"

// EmailClient sends one message. SendGridClient is the production implementation.
type EmailClient interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// SendGridClient implements EmailClient with the SendGrid v3 mail API.
type SendGridClient struct {
	apiKey   string
	from     string
	fromName string
	host     string
}

func NewSendGridClient(apiKey, from, fromName string) *SendGridClient {
	return &SendGridClient{
		apiKey:   strings.TrimSpace(apiKey),
		from:     strings.TrimSpace(from),
		fromName: strings.TrimSpace(fromName),
		host:     defaultSendGridHost,
	}
}

func (c *SendGridClient) Send(ctx context.Context, to, subject, text, html string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if c.from == "" {
		return fmt.Errorf("from address is empty")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, c.from),
		subject,
		sgmail.NewEmail("", to),
		text,
		html,
	)

	req := sendgrid.GetRequest(c.apiKey, "/v3/mail/send", c.host)
	req.Method = "POST"
	req.Body = sgmail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Printf("[sendgrid] error status=%d, body=%s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Printf("[sendgrid] mail sent: status=%d to=%s subject=%q", response.StatusCode, maskEmail(to), subject)
	return nil
}

// maskEmail keeps the first character and the domain ("a***@example.com").
func maskEmail(s string) string {
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return "***"
	}
	return s[:1] + "***" + s[at:]
}
