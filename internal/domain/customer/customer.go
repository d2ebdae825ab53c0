package customer

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("customer: not found")
	ErrInvalidName  = errors.New("customer: name is required")
	ErrInvalidEmail = errors.New("customer: email is required")
	// ErrDuplicateKey covers email and document collisions on creation.
	ErrDuplicateKey = errors.New("customer: email or document already registered")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Customer struct {
	ID        string
	Name      string
	Email     string
	Document  string
	Phones    []string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, name, email, document string, phones []string) (*Customer, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if email == "" {
		return nil, ErrInvalidEmail
	}
	now := time.Now().UTC()
	return &Customer{
		ID:        id,
		Name:      name,
		Email:     email,
		Document:  document,
		Phones:    append([]string(nil), phones...),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PrimaryPhone returns the first registered phone, or empty when none exists.
func (c *Customer) PrimaryPhone() string {
	if len(c.Phones) == 0 {
		return ""
	}
	return c.Phones[0]
}

func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Phones = append([]string(nil), c.Phones...)
	return &clone
}
