package notification

import (
	"context"
	"fmt"
	"strings"
)

// Channel delivers one message through a single transport (email, messaging
// API). Implementations must be safe for concurrent use.
type Channel interface {
	Name() string
	Send(ctx context.Context, to, subject, body string) error
}

// DeliveryError is returned when every configured channel failed. Partial
// success is not an error; callers treat notification as advisory and only
// total failure is surfaced for operational alerting.
type DeliveryError struct {
	Causes []error
}

func (e *DeliveryError) Error() string {
	msgs := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		msgs = append(msgs, c.Error())
	}
	return fmt.Sprintf("notification: all %d channels failed: %s", len(e.Causes), strings.Join(msgs, "; "))
}

func (e *DeliveryError) Unwrap() []error { return e.Causes }
