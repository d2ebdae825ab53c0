package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rbritto/stockflow/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status, total_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.Status, o.TotalAmount, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, status, total_amount, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price
		FROM order_items WHERE order_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Update rewrites the order row and its items in one transaction so the
// stored total never diverges from the stored items.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, total_amount = ?, updated_at = ?
		WHERE id = ?`,
		o.Status, o.TotalAmount, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, o.ID).Scan(&exists); err != nil {
			return order.ErrNotFound
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

func insertItems(ctx context.Context, tx *sql.Tx, o *order.Order) error {
	for i, it := range o.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			o.ID, i, it.ProductID, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}
