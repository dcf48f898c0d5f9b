package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*StockRepo)(nil)

// StockRepo stock por (producto, ubicación) sobre PostgreSQL (usable con pool o tx).
// Decrement e Increment son un único UPDATE atómico: dos reservas concurrentes nunca leen el
// mismo valor para restarle.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, location_id, quantity, min_stock, status, updated_at`

func scanRecord(row pgx.Row) (*entity.InventoryRecord, error) {
	var s entity.InventoryRecord
	if err := row.Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.MinStock, &s.Status, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el stock actual de un producto en una ubicación (nil si no hay registro).
func (r *StockRepo) Get(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM inventory_records WHERE product_id = $1 AND location_id = $2`
	s, err := scanRecord(r.q.QueryRow(ctx, query, productID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// Decrement resta qty solo si la cantidad almacenada alcanza.
func (r *StockRepo) Decrement(ctx context.Context, productID, locationID string, qty decimal.Decimal) (*repository.StockChange, error) {
	query := `
		UPDATE inventory_records
		SET quantity = quantity - $3,
			status = CASE WHEN quantity - $3 > 0 THEN 'disponible' ELSE 'agotado' END,
			updated_at = now()
		WHERE product_id = $1 AND location_id = $2 AND quantity >= $3
		RETURNING quantity + $3, quantity, min_stock`
	var c repository.StockChange
	err := r.q.QueryRow(ctx, query, productID, locationID, qty).Scan(&c.Previous, &c.Current, &c.Minimum)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	available := decimal.Zero
	current, getErr := r.Get(ctx, productID, locationID)
	if getErr != nil {
		return nil, getErr
	}
	if current != nil {
		available = current.Quantity
	}
	return nil, &domain.InsufficientStockError{
		ProductID: productID, LocationID: locationID, Requested: qty, Available: available,
	}
}

// Increment suma qty creando el registro si no existe.
func (r *StockRepo) Increment(ctx context.Context, productID, locationID string, qty decimal.Decimal) (*repository.StockChange, error) {
	query := `
		INSERT INTO inventory_records (product_id, location_id, quantity, min_stock, status, updated_at)
		VALUES ($1, $2, $3, 0, CASE WHEN $3 > 0 THEN 'disponible' ELSE 'agotado' END, now())
		ON CONFLICT (product_id, location_id) DO UPDATE
		SET quantity = inventory_records.quantity + EXCLUDED.quantity,
			status = CASE WHEN inventory_records.quantity + EXCLUDED.quantity > 0 THEN 'disponible' ELSE 'agotado' END,
			updated_at = now()
		RETURNING quantity - $3, quantity, min_stock`
	var c repository.StockChange
	if err := r.q.QueryRow(ctx, query, productID, locationID, qty).Scan(&c.Previous, &c.Current, &c.Minimum); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("increment stock: %w", err)
	}
	return &c, nil
}

// SetMinimum fija el stock mínimo creando el registro en cero si no existe.
func (r *StockRepo) SetMinimum(ctx context.Context, productID, locationID string, minimum decimal.Decimal) error {
	query := `
		INSERT INTO inventory_records (product_id, location_id, quantity, min_stock, status, updated_at)
		VALUES ($1, $2, 0, $3, 'agotado', now())
		ON CONFLICT (product_id, location_id) DO UPDATE
		SET min_stock = EXCLUDED.min_stock, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID, locationID, minimum); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("set minimum: %w", err)
	}
	return nil
}

// List lista registros por producto y ubicación.
func (r *StockRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM inventory_records WHERE 1=1`
	args := []any{}
	pos := 1
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.LocationID != "" {
		query += fmt.Sprintf(" AND location_id = $%d", pos)
		args = append(args, f.LocationID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY product_id, location_id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitOrAll(f.Limit), f.Offset)
	return r.list(ctx, query, args...)
}

// ListAtOrBelowMinimum registros con mínimo definido y cantidad en o bajo ese mínimo.
func (r *StockRepo) ListAtOrBelowMinimum(ctx context.Context, locationID string) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT ` + stockColumns + ` FROM inventory_records
		WHERE min_stock > 0 AND quantity <= min_stock AND ($1 = '' OR location_id = $1)
		ORDER BY product_id, location_id`
	return r.list(ctx, query, locationID)
}

func (r *StockRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		s, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
