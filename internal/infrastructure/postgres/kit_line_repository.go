package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

var _ repository.KitLineRepository = (*KitLineRepo)(nil)

// KitLineRepo libro de productos por kit sobre PostgreSQL.
type KitLineRepo struct {
	q Querier
}

// NewKitLineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewKitLineRepository(q Querier) *KitLineRepo {
	return &KitLineRepo{q: q}
}

// Create persiste una línea; (kit, producto) es único.
func (r *KitLineRepo) Create(ctx context.Context, l *entity.KitProductLine) error {
	query := `
		INSERT INTO kit_product_lines (id, kit_id, product_id, requested, prepared, sent, received, used, returned,
			disposable, lot, expires_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.KitID, l.ProductID, l.Requested, l.Prepared, l.Sent, l.Received, l.Used, l.Returned,
		l.Disposable, l.Lot, l.ExpiresAt, l.Notes, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert kit line: %w", err)
	}
	return nil
}

// ListByKit líneas del kit en orden de creación.
func (r *KitLineRepo) ListByKit(ctx context.Context, kitID string) ([]*entity.KitProductLine, error) {
	query := `
		SELECT id, kit_id, product_id, requested, prepared, sent, received, used, returned,
			disposable, lot, expires_at, notes, created_at, updated_at
		FROM kit_product_lines WHERE kit_id = $1
		ORDER BY created_at, product_id`
	rows, err := r.q.Query(ctx, query, kitID)
	if err != nil {
		return nil, fmt.Errorf("list kit lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.KitProductLine
	for rows.Next() {
		var l entity.KitProductLine
		if err := rows.Scan(&l.ID, &l.KitID, &l.ProductID, &l.Requested, &l.Prepared, &l.Sent, &l.Received,
			&l.Used, &l.Returned, &l.Disposable, &l.Lot, &l.ExpiresAt, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan kit line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// Update persiste las cantidades de la línea. El CHECK de la tabla rechaza órdenes inválidos.
func (r *KitLineRepo) Update(ctx context.Context, l *entity.KitProductLine) error {
	query := `
		UPDATE kit_product_lines SET prepared = $2, sent = $3, received = $4, used = $5, returned = $6,
			lot = $7, expires_at = $8, notes = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		l.ID, l.Prepared, l.Sent, l.Received, l.Used, l.Returned, l.Lot, l.ExpiresAt, l.Notes, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update kit line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
