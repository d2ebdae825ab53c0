package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WhatsAppChannel delivers notifications through a WhatsApp messaging API.
type WhatsAppChannel struct {
	url    string
	token  string
	client *http.Client
}

func NewWhatsAppChannel(url, token string) *WhatsAppChannel {
	return &WhatsAppChannel{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

type whatsAppMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (c *WhatsAppChannel) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(whatsAppMessage{
		To:   to,
		Body: subject + "\n\n" + body,
	})
	if err != nil {
		return fmt.Errorf("whatsapp channel: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp channel: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp channel: send to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp channel: send to %s: unexpected status %d", to, resp.StatusCode)
	}
	return nil
}
