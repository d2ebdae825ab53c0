package notification

import (
	"context"
	"errors"
	"testing"
)

type fakeChannel struct {
	name        string
	err         error
	sends       int
	lastTo      string
	lastSubject string
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, to, subject, _ string) error {
	c.sends++
	c.lastTo = to
	c.lastSubject = subject
	return c.err
}

func TestSendAllChannelsAttempted(t *testing.T) {
	email := &fakeChannel{name: "email"}
	whatsapp := &fakeChannel{name: "whatsapp"}
	f := NewFacade([]Channel{email, whatsapp}, nil, nil)

	if err := f.Send(context.Background(), "ops@example.com", "subject", "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if email.sends != 1 || whatsapp.sends != 1 {
		t.Errorf("sends = (%d, %d), want (1, 1)", email.sends, whatsapp.sends)
	}
	if email.lastTo != "ops@example.com" {
		t.Errorf("lastTo = %q", email.lastTo)
	}
}

func TestSendPartialFailureIsSuccess(t *testing.T) {
	email := &fakeChannel{name: "email", err: errors.New("smtp down")}
	whatsapp := &fakeChannel{name: "whatsapp"}
	f := NewFacade([]Channel{email, whatsapp}, nil, nil)

	if err := f.Send(context.Background(), "ops@example.com", "subject", "body"); err != nil {
		t.Fatalf("Send with one working channel: %v", err)
	}
	if whatsapp.sends != 1 {
		t.Errorf("whatsapp sends = %d, want 1", whatsapp.sends)
	}
}

func TestSendAllChannelsFail(t *testing.T) {
	email := &fakeChannel{name: "email", err: errors.New("smtp down")}
	whatsapp := &fakeChannel{name: "whatsapp", err: errors.New("api down")}
	f := NewFacade([]Channel{email, whatsapp}, nil, nil)

	err := f.Send(context.Background(), "ops@example.com", "subject", "body")

	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("Send err = %v, want *DeliveryError", err)
	}
	if len(deliveryErr.Causes) != 2 {
		t.Errorf("causes = %d, want 2", len(deliveryErr.Causes))
	}
}

func TestSendEmptyRecipientIsNoop(t *testing.T) {
	email := &fakeChannel{name: "email"}
	f := NewFacade([]Channel{email}, nil, nil)

	if err := f.Send(context.Background(), "", "subject", "body"); err != nil {
		t.Fatalf("Send with empty recipient: %v", err)
	}
	if email.sends != 0 {
		t.Errorf("sends = %d, want 0", email.sends)
	}
}

func TestSendNoChannelsIsNoop(t *testing.T) {
	f := NewFacade(nil, nil, nil)

	if err := f.Send(context.Background(), "ops@example.com", "subject", "body"); err != nil {
		t.Fatalf("Send with no channels: %v", err)
	}
}
