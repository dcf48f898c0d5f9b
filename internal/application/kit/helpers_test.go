package kit_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/application/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/application/inventory"
	"github.com/jhoicas/kitquirurgico-api/internal/application/kit"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	logistica = "u-logistica"
	mensajero = "u-mensajero"
	tecnico   = "u-tecnico"
	limpieza  = "u-limpieza"
	bodegaID  = "loc-bodega"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	repos    ports.Repos
	kits     *kit.UseCase
	cleaning *cleaning.UseCase
}

// newFixture arma los casos de uso sobre el backend en memoria con una bodega creada.
// runner permite envolver el TxRunner (p. ej. para sincronizar transacciones concurrentes).
func newFixture(t *testing.T, wrap ...func(ports.TxRunner) ports.TxRunner) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	var runner ports.TxRunner = store
	for _, w := range wrap {
		runner = w(runner)
	}
	ledger := inventory.NewLedger()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		repos: repos,
		kits: kit.NewUseCase(kit.Deps{
			TxRunner:     runner,
			Ledger:       ledger,
			KitRepo:      repos.Kits,
			LineRepo:     repos.KitLines,
			ProductRepo:  repos.Products,
			LocationRepo: repos.Locations,
		}),
		cleaning: cleaning.NewUseCase(cleaning.Deps{
			TxRunner: runner,
			Ledger:   ledger,
			ItemRepo: repos.Cleaning,
		}),
	}
	require.NoError(t, repos.Locations.Create(f.ctx, &entity.Location{ID: bodegaID, Name: "Bodega central", Kind: entity.LocationBodega}))
	return f
}

// product crea un producto con stock inicial en la bodega (vía crédito del libro, con su movimiento).
func (f *fixture) product(id string, disposable bool, stock int64) {
	f.t.Helper()
	require.NoError(f.t, f.repos.Products.Create(f.ctx, &entity.Product{ID: id, SKU: "SKU-" + id, Name: "Producto " + id, Disposable: disposable}))
	if stock <= 0 {
		return
	}
	err := f.store.Run(f.ctx, func(repos ports.Repos) error {
		_, err := inventory.NewLedger().Credit(f.ctx, repos, inventory.MovementInput{
			ProductID: id, LocationID: bodegaID, Quantity: decimal.NewFromInt(stock),
			Ref: entity.MovementRef{Type: entity.RefManual}, Actor: logistica,
		})
		return err
	})
	require.NoError(f.t, err)
}

func (f *fixture) stock(productID string) decimal.Decimal {
	f.t.Helper()
	rec, err := f.repos.Stock.Get(f.ctx, productID, bodegaID)
	require.NoError(f.t, err)
	if rec == nil {
		return decimal.Zero
	}
	return rec.Quantity
}

func (f *fixture) movements(productID string) []*entity.InventoryMovement {
	f.t.Helper()
	movs, err := f.repos.Movements.List(f.ctx, repository.MovementFilter{ProductID: productID})
	require.NoError(f.t, err)
	return movs
}

// assertBalanced verifica cantidad == Σ movimientos para el producto en la bodega.
func (f *fixture) assertBalanced(productID string) {
	f.t.Helper()
	sum, err := f.repos.Movements.Sum(f.ctx, productID, bodegaID)
	require.NoError(f.t, err)
	require.True(f.t, sum.Equal(f.stock(productID)), "stock %s != Σ movimientos %s", f.stock(productID), sum)
}

func (f *fixture) events(kitID string) []*entity.TraceabilityEvent {
	f.t.Helper()
	events, err := f.repos.Trace.ListByEntity(f.ctx, entity.TraceEntityKit, kitID)
	require.NoError(f.t, err)
	return events
}

func (f *fixture) create(lines ...dto.KitLineRequest) *dto.KitResponse {
	f.t.Helper()
	k, err := f.kits.Create(f.ctx, logistica, dto.CreateKitRequest{
		CaseID: "case-1", CaseNumber: "CX-001", SourceLocationID: bodegaID, Lines: lines,
	})
	require.NoError(f.t, err)
	return k
}

func line(productID string, qty int64) dto.KitLineRequest {
	return dto.KitLineRequest{ProductID: productID, Quantity: decimal.NewFromInt(qty)}
}

// delivered lleva un kit recién creado hasta entregado.
func (f *fixture) delivered(k *dto.KitResponse) *dto.KitResponse {
	f.t.Helper()
	var err error
	k, err = f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(f.t, err)
	k, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
	require.NoError(f.t, err)
	k, err = f.kits.Dispatch(f.ctx, mensajero, k.ID, dto.DispatchRequest{ExpectedState: "listo_envio"})
	require.NoError(f.t, err)
	k, err = f.kits.Deliver(f.ctx, tecnico, k.ID, dto.DeliverRequest{ExpectedState: "en_transito"})
	require.NoError(f.t, err)
	return k
}

func (f *fixture) use(k *dto.KitResponse, used map[string]int64) *dto.KitResponse {
	f.t.Helper()
	var lines []dto.LineQuantity
	for _, l := range k.Lines {
		if q, ok := used[l.ProductID]; ok {
			lines = append(lines, dto.LineQuantity{LineID: l.ID, Quantity: decimal.NewFromInt(q)})
		}
	}
	k, err := f.kits.RecordUsage(f.ctx, tecnico, k.ID, dto.UsageRequest{ExpectedState: "entregado", Lines: lines})
	require.NoError(f.t, err)
	return k
}

func lineID(k *dto.KitResponse, productID string) string {
	for _, l := range k.Lines {
		if l.ProductID == productID {
			return l.ID
		}
	}
	return ""
}

func boolPtr(b bool) *bool { return &b }

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
