package channel

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailChannel delivers notifications over SMTP.
type EmailChannel struct {
	addr string
	from string
	auth smtp.Auth
}

func NewEmailChannel(addr, from, user, password string) *EmailChannel {
	var auth smtp.Auth
	if user != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &EmailChannel{addr: addr, from: from, auth: auth}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", c.from, to, subject, body)
	if err := smtp.SendMail(c.addr, c.auth, c.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("email channel: send to %s: %w", to, err)
	}
	return nil
}
