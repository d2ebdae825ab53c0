package product

import (
	"context"
	"fmt"
	"time"

	"github.com/rbritto/stockflow/internal/application/stock"
	domain "github.com/rbritto/stockflow/internal/domain/product"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

// Service owns catalog operations. Stock movements go through the ledger so
// the exclusive-access and notification rules hold for restocks as well.
type Service struct {
	products domain.Repository
	ledger   *stock.Ledger
	idGen    IDGenerator
	ops      stock.Recipient
	log      *zap.Logger
}

func NewService(products domain.Repository, ledger *stock.Ledger, idGen IDGenerator, ops stock.Recipient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products: products,
		ledger:   ledger,
		idGen:    idGen,
		ops:      ops,
		log:      logger.With(zap.String("component", "product_service")),
	}
}

type CreateProductInput struct {
	Name         string
	Description  string
	SKU          string
	Price        decimal.Decimal
	InitialStock int
	MinimumStock int
	RestockDate  *time.Time
}

func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	p, err := domain.New(
		s.idGen.NewID(),
		input.Name,
		input.Description,
		input.SKU,
		input.Price,
		input.InitialStock,
		input.MinimumStock,
		input.RestockDate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("product_created",
		zap.String("product_id", p.ID),
		zap.String("sku", p.SKU),
		zap.Int("initial_stock", p.Quantity),
	)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// MoveStock applies a signed stock movement through the ledger's exclusive
// path. Positive deltas are restocks, negative deltas manual write-offs.
// Low-stock alerts raised here go to the operations recipient.
func (s *Service) MoveStock(ctx context.Context, productID string, delta int) (int, error) {
	lock, err := s.ledger.AcquireExclusive(ctx, productID)
	if err != nil {
		return 0, err
	}
	defer lock.Release()

	newQty, err := s.ledger.Adjust(ctx, lock, delta, s.ops)
	if err != nil {
		return 0, err
	}
	return newQty, nil
}

func (s *Service) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := p.UpdatePrice(price); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("product service: persist: %w", err)
	}
	return p, nil
}

// UpdateRestockDate sets a new expected restock date and re-arms the restock
// monitor for the product.
func (s *Service) UpdateRestockDate(ctx context.Context, productID string, date *time.Time) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateRestockDate(date); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("product service: persist: %w", err)
	}
	return p, nil
}
