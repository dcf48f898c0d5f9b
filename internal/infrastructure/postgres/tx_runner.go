package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos arma todos los repositorios sobre un Querier (pool o tx).
func NewRepos(q Querier) ports.Repos {
	return ports.Repos{
		Products:  NewProductRepository(q),
		Locations: NewLocationRepository(q),
		Kits:      NewKitRepository(q),
		KitLines:  NewKitLineRepository(q),
		Stock:     NewStockRepository(q),
		Movements: NewInventoryMovementRepository(q),
		Cleaning:  NewCleaningItemRepository(q),
		Trace:     NewTraceabilityRepository(q),
		Outbox:    NewOutboxRepository(q),
	}
}
