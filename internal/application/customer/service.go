package customer

import (
	"context"

	domain "github.com/rbritto/stockflow/internal/domain/customer"

	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

type Service struct {
	customers domain.Repository
	idGen     IDGenerator
	log       *zap.Logger
}

func NewService(customers domain.Repository, idGen IDGenerator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		customers: customers,
		idGen:     idGen,
		log:       logger.With(zap.String("component", "customer_service")),
	}
}

type CreateCustomerInput struct {
	Name     string
	Email    string
	Document string
	Phones   []string
}

func (s *Service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*domain.Customer, error) {
	c, err := domain.New(s.idGen.NewID(), input.Name, input.Email, input.Document, input.Phones)
	if err != nil {
		return nil, err
	}
	if err := s.customers.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("customer_created", zap.String("customer_id", c.ID))
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customers.FindByID(ctx, id)
}
