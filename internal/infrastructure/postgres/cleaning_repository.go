package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

var _ repository.CleaningItemRepository = (*CleaningItemRepo)(nil)

// CleaningItemRepo ítems de limpieza sobre PostgreSQL.
type CleaningItemRepo struct {
	q Querier
}

// NewCleaningItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCleaningItemRepository(q Querier) *CleaningItemRepo {
	return &CleaningItemRepo{q: q}
}

const cleaningColumns = `id, kit_id, kit_product_line_id, product_id, location_id, to_recover, approved,
	status, disposable, approved_by, notes, created_at, updated_at`

func scanCleaningItem(row pgx.Row) (*entity.CleaningItem, error) {
	var it entity.CleaningItem
	err := row.Scan(&it.ID, &it.KitID, &it.KitProductLineID, &it.ProductID, &it.LocationID, &it.ToRecover,
		&it.Approved, &it.Status, &it.Disposable, &it.ApprovedBy, &it.Notes, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create persiste un ítem de limpieza.
func (r *CleaningItemRepo) Create(ctx context.Context, it *entity.CleaningItem) error {
	query := `
		INSERT INTO cleaning_items (` + cleaningColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.KitID, it.KitProductLineID, it.ProductID, it.LocationID, it.ToRecover, it.Approved,
		it.Status, it.Disposable, it.ApprovedBy, it.Notes, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert cleaning item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID.
func (r *CleaningItemRepo) GetByID(ctx context.Context, id string) (*entity.CleaningItem, error) {
	it, err := scanCleaningItem(r.q.QueryRow(ctx, `SELECT `+cleaningColumns+` FROM cleaning_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cleaning item: %w", err)
	}
	return it, nil
}

// ListByKit ítems de un kit.
func (r *CleaningItemRepo) ListByKit(ctx context.Context, kitID string) ([]*entity.CleaningItem, error) {
	query := `SELECT ` + cleaningColumns + ` FROM cleaning_items WHERE kit_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, kitID)
}

// ListByStatus cola de trabajo por estado, los más antiguos primero.
func (r *CleaningItemRepo) ListByStatus(ctx context.Context, status entity.CleaningStatus, limit, offset int) ([]*entity.CleaningItem, error) {
	query := `SELECT ` + cleaningColumns + ` FROM cleaning_items WHERE status = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, status, limitOrAll(limit), offset)
}

func (r *CleaningItemRepo) list(ctx context.Context, query string, args ...any) ([]*entity.CleaningItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cleaning items: %w", err)
	}
	defer rows.Close()
	var list []*entity.CleaningItem
	for rows.Next() {
		it, err := scanCleaningItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cleaning item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// UpdateState persiste el ítem solo si su estado almacenado sigue siendo expected.
func (r *CleaningItemRepo) UpdateState(ctx context.Context, it *entity.CleaningItem, expected entity.CleaningStatus) error {
	query := `
		UPDATE cleaning_items SET status = $3, approved = $4, approved_by = $5, notes = $6, updated_at = $7
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query, it.ID, expected, it.Status, it.Approved, it.ApprovedBy, it.Notes, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update cleaning item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		current, err := r.GetByID(ctx, it.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: ítem %s está en %s", domain.ErrStaleState, it.ID, current.Status)
	}
	return nil
}
