package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rbritto/stockflow/internal/domain/product"
)

const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
)

// ProductRepository persists products in MySQL. Exclusive stock access maps to
// a transaction-scoped SELECT ... FOR UPDATE with the session lock wait
// timeout bounding the wait.
type ProductRepository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewProductRepository(db *sql.DB, lockTimeout time.Duration) *ProductRepository {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &ProductRepository{db: db, lockTimeout: lockTimeout}
}

const productColumns = `id, name, description, sku, price, stock_quantity, minimum_stock, status, version, restock_date, last_notification_sent, created_at, updated_at`

func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.SKU, p.Price, p.Quantity, p.MinimumStock,
		p.Status, p.Version, nullTime(p.RestockDate), nullTime(p.LastNotificationSent),
		p.CreatedAt, p.UpdatedAt,
	)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
		return product.ErrDuplicateSKU
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	return execUpdate(ctx, r.db, p)
}

func (r *ProductRepository) FindDueForRestock(ctx context.Context, day time.Time) ([]*product.Product, error) {
	d := product.Day(day)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE restock_date IS NOT NULL AND restock_date <= ?
		  AND (last_notification_sent IS NULL OR last_notification_sent < ?)`,
		d, d,
	)
	if err != nil {
		return nil, fmt.Errorf("query due for restock: %w", err)
	}
	defer rows.Close()

	var due []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, p)
	}
	return due, rows.Err()
}

func (r *ProductRepository) AcquireLock(ctx context.Context, productID string) (product.StockLock, error) {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)

	tx, err := r.db.BeginTx(lockCtx, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("begin tx: %w", err)
	}

	seconds := int(r.lockTimeout.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	if _, err := tx.ExecContext(lockCtx, `SET innodb_lock_wait_timeout = ?`, seconds); err != nil {
		_ = tx.Rollback()
		cancel()
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}

	row := tx.QueryRowContext(lockCtx, `SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, productID)
	p, err := scanProduct(row)
	if err != nil {
		_ = tx.Rollback()
		cancel()
		var myErr *mysql.MySQLError
		switch {
		case errors.As(err, &myErr) && myErr.Number == mysqlErrLockWaitTimeout:
			return nil, product.ErrLockContention
		case errors.Is(err, context.DeadlineExceeded):
			return nil, product.ErrLockContention
		default:
			return nil, err
		}
	}

	return &sqlStockLock{tx: tx, cancel: cancel, product: p}, nil
}

type sqlStockLock struct {
	tx      *sql.Tx
	cancel  context.CancelFunc
	product *product.Product
	done    bool
}

func (l *sqlStockLock) Product() *product.Product { return l.product }

func (l *sqlStockLock) Save(ctx context.Context) error {
	if err := execUpdate(ctx, l.tx, l.product); err != nil {
		_ = l.tx.Rollback()
		l.cancel()
		l.done = true
		return err
	}
	if err := l.tx.Commit(); err != nil {
		l.cancel()
		l.done = true
		return fmt.Errorf("commit stock update: %w", err)
	}
	l.done = true
	l.cancel()
	return nil
}

func (l *sqlStockLock) Release() {
	if l.done {
		return
	}
	l.done = true
	_ = l.tx.Rollback()
	l.cancel()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execUpdate(ctx context.Context, db execer, p *product.Product) error {
	_, err := db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, sku = ?, price = ?, stock_quantity = ?,
		    minimum_stock = ?, status = ?, version = ?, restock_date = ?,
		    last_notification_sent = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.SKU, p.Price, p.Quantity, p.MinimumStock,
		p.Status, p.Version, nullTime(p.RestockDate), nullTime(p.LastNotificationSent),
		p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*product.Product, error) {
	var (
		p            product.Product
		restockDate  sql.NullTime
		lastNotified sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.SKU, &p.Price, &p.Quantity,
		&p.MinimumStock, &p.Status, &p.Version, &restockDate, &lastNotified,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if restockDate.Valid {
		d := restockDate.Time
		p.RestockDate = &d
	}
	if lastNotified.Valid {
		d := lastNotified.Time
		p.LastNotificationSent = &d
	}
	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
