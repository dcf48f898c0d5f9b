package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/memory"
)

// ─── Transacciones ───────────────────────────────────────────────────────────

func TestRun_ErrorRevierteTodo(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repos := s.Repos()

	_, err := repos.Stock.Increment(ctx, "p1", "b1", decimal.NewFromInt(10))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Run(ctx, func(tx ports.Repos) error {
		if _, err := tx.Stock.Decrement(ctx, "p1", "b1", decimal.NewFromInt(4)); err != nil {
			return err
		}
		require.NoError(t, tx.Movements.Create(ctx, &entity.InventoryMovement{ID: "m1", ProductID: "p1", LocationID: "b1", Quantity: decimal.NewFromInt(-4)}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := repos.Stock.Get(ctx, "p1", "b1")
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(10)))
	movs, err := repos.Movements.List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestRun_CommitPersiste(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	err := s.Run(ctx, func(tx ports.Repos) error {
		_, err := tx.Stock.Increment(ctx, "p1", "b1", decimal.NewFromInt(3))
		return err
	})
	require.NoError(t, err)

	rec, err := s.Repos().Stock.Get(ctx, "p1", "b1")
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, entity.StockDisponible, rec.Status)
}

func TestLecturaFueraDeTransaccionEsperaAlRollback(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repos := s.Repos()
	_, err := repos.Stock.Increment(ctx, "p1", "b1", decimal.NewFromInt(10))
	require.NoError(t, err)

	inside := make(chan struct{})
	release := make(chan struct{})
	boom := errors.New("boom")
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.Run(ctx, func(tx ports.Repos) error {
			if _, err := tx.Stock.Increment(ctx, "p1", "b1", decimal.NewFromInt(5)); err != nil {
				return err
			}
			close(inside)
			<-release
			return boom
		})
	}()
	<-inside

	seen := make(chan decimal.Decimal, 1)
	go func() {
		rec, err := repos.Stock.Get(ctx, "p1", "b1")
		if err != nil || rec == nil {
			seen <- decimal.NewFromInt(-1)
			return
		}
		seen <- rec.Quantity
	}()

	select {
	case q := <-seen:
		t.Fatalf("la lectura no esperó a la transacción en curso: vio %s", q)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.ErrorIs(t, <-txDone, boom)
	assert.True(t, (<-seen).Equal(decimal.NewFromInt(10)), "solo se observa estado confirmado")
}

// ─── Stock ───────────────────────────────────────────────────────────────────

func TestDecrement_SinStockDevuelveDetalle(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	_, err := repos.Stock.Increment(ctx, "p1", "b1", decimal.NewFromInt(2))
	require.NoError(t, err)

	_, err = repos.Stock.Decrement(ctx, "p1", "b1", decimal.NewFromInt(5))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Available.Equal(decimal.NewFromInt(2)))

	change, err := repos.Stock.Decrement(ctx, "p1", "b1", decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, change.Previous.Equal(decimal.NewFromInt(2)))
	assert.True(t, change.Current.IsZero())

	rec, _ := repos.Stock.Get(ctx, "p1", "b1")
	assert.Equal(t, entity.StockAgotado, rec.Status)
}

func TestListAtOrBelowMinimum(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	_, _ = repos.Stock.Increment(ctx, "p1", "b1", decimal.NewFromInt(2))
	_, _ = repos.Stock.Increment(ctx, "p2", "b1", decimal.NewFromInt(20))
	require.NoError(t, repos.Stock.SetMinimum(ctx, "p1", "b1", decimal.NewFromInt(5)))
	require.NoError(t, repos.Stock.SetMinimum(ctx, "p2", "b1", decimal.NewFromInt(5)))

	low, err := repos.Stock.ListAtOrBelowMinimum(ctx, "")
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "p1", low[0].ProductID)
}

// ─── Kits ────────────────────────────────────────────────────────────────────

func TestKitUpdateState_EstadoDistintoEsStale(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	k := &entity.Kit{ID: "k1", Status: entity.KitSolicitado}
	require.NoError(t, repos.Kits.Create(ctx, k))

	k.Status = entity.KitPreparando
	require.NoError(t, repos.Kits.UpdateState(ctx, k, entity.KitSolicitado))

	k.Status = entity.KitCancelado
	err := repos.Kits.UpdateState(ctx, k, entity.KitSolicitado)
	assert.ErrorIs(t, err, domain.ErrStaleState)

	got, _ := repos.Kits.GetByID(ctx, "k1")
	assert.Equal(t, entity.KitPreparando, got.Status)
}

func TestKitGetByID_DevuelveCopia(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	k := &entity.Kit{ID: "k1", Status: entity.KitSolicitado}
	k.Stamp(entity.KitSolicitado, "ana", time.Now())
	require.NoError(t, repos.Kits.Create(ctx, k))

	got, _ := repos.Kits.GetByID(ctx, "k1")
	got.Status = entity.KitCancelado
	got.Stamp(entity.KitCancelado, "luis", time.Now())

	again, _ := repos.Kits.GetByID(ctx, "k1")
	assert.Equal(t, entity.KitSolicitado, again.Status)
	assert.False(t, again.Phase(entity.KitCancelado).Reached())
}

// ─── Trazabilidad y outbox ───────────────────────────────────────────────────

func TestTraceAppend_AsignaSecuencia(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()
	at := time.Now()
	for _, a := range []string{"a", "b"} {
		require.NoError(t, repos.Trace.Append(ctx, &entity.TraceabilityEvent{ID: a, EntityType: entity.TraceEntityKit, EntityID: "k1", Action: a, CreatedAt: at}))
	}
	events, err := repos.Trace.ListByEntity(ctx, entity.TraceEntityKit, "k1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Action)
	assert.Less(t, events[0].Seq, events[1].Seq)
}

func TestOutbox_ClaimYMarcar(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repos := s.Repos()
	now := time.Now()
	require.NoError(t, repos.Outbox.Enqueue(ctx, &entity.OutboxNotification{ID: "n1", Status: entity.OutboxPendiente, NextAttemptAt: now}))
	require.NoError(t, repos.Outbox.Enqueue(ctx, &entity.OutboxNotification{ID: "n2", Status: entity.OutboxPendiente, NextAttemptAt: now.Add(time.Hour)}))

	due, err := repos.Outbox.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "n1", due[0].ID)

	require.NoError(t, repos.Outbox.MarkFailed(ctx, "n1", "caído", now.Add(time.Minute), false))
	require.NoError(t, repos.Outbox.MarkSent(ctx, "n2", now))

	all := s.Outbox()
	assert.Equal(t, 1, all[0].Attempts)
	assert.Equal(t, entity.OutboxPendiente, all[0].Status)
	assert.Equal(t, entity.OutboxEnviado, all[1].Status)
}
