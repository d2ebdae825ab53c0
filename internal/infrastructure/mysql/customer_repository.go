package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/rbritto/stockflow/internal/domain/customer"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Insert(ctx context.Context, c *customer.Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, document, phones, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Document, strings.Join(c.Phones, ","),
		c.Status, c.CreatedAt, c.UpdatedAt,
	)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
		return customer.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	var (
		c      customer.Customer
		phones string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, document, phones, status, created_at, updated_at
		FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Document, &phones, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	if phones != "" {
		c.Phones = strings.Split(phones, ",")
	}
	return &c, nil
}
