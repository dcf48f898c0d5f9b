package kit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
	"github.com/jhoicas/kitquirurgico-api/pkg/qrtoken"
)

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de conciliación
// ──────────────────────────────────────────────────────────────────────────────

func TestEscenarioA_DevolucionSinAbrirReingresaDirecto(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)

	k := f.create(line("P", 5))
	k = f.delivered(k)
	assert.True(t, f.stock("P").Equal(dec(5)), "la preparación reserva 5")
	salidas := 0
	for _, m := range f.movements("P") {
		if m.Type == entity.MovementSalida {
			salidas++
			assert.True(t, m.Quantity.Equal(dec(-5)))
		}
	}
	assert.Equal(t, 1, salidas)

	k = f.use(k, map[string]int64{"P": 3})
	k, err := f.kits.Return(f.ctx, tecnico, k.ID, dto.ReturnRequest{
		ExpectedState: "en_uso",
		Lines:         []dto.ReturnLine{{LineID: lineID(k, "P"), Opened: boolPtr(false)}},
	})
	require.NoError(t, err)

	assert.Equal(t, string(entity.KitFinalizado), k.Status)
	assert.True(t, f.stock("P").Equal(dec(7)))
	items, err := f.repos.Cleaning.ListByKit(f.ctx, k.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	f.assertBalanced("P")

	var actions []string
	for _, e := range f.events(k.ID) {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		"solicitado", "aprobado", "preparado", "despachado", "entregado",
		"uso_registrado", "devuelto", "finalizado",
	}, actions)
}

func TestEscenarioB_AbiertoSinUsarPasaALimpieza(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)

	k := f.use(f.delivered(f.create(line("P", 5))), map[string]int64{"P": 3})
	k, err := f.kits.Return(f.ctx, tecnico, k.ID, dto.ReturnRequest{
		ExpectedState: "en_uso",
		Lines:         []dto.ReturnLine{{LineID: lineID(k, "P"), Opened: boolPtr(true)}},
	})
	require.NoError(t, err)

	assert.Equal(t, string(entity.KitEnLimpieza), k.Status)
	assert.True(t, f.stock("P").Equal(dec(5)), "sin crédito hasta aprobar limpieza")
	items, err := f.repos.Cleaning.ListByKit(f.ctx, k.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entity.CleaningPendiente, items[0].Status)
	assert.True(t, items[0].ToRecover.Equal(dec(2)))
	f.assertBalanced("P")
}

func TestEscenarioC_AprobacionParcialCierraElKit(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)

	k := f.use(f.delivered(f.create(line("P", 5))), map[string]int64{"P": 3})
	_, err := f.kits.Return(f.ctx, tecnico, k.ID, dto.ReturnRequest{
		ExpectedState: "en_uso",
		Lines:         []dto.ReturnLine{{LineID: lineID(k, "P"), Opened: boolPtr(true)}},
	})
	require.NoError(t, err)
	items, err := f.repos.Cleaning.ListByKit(f.ctx, k.ID)
	require.NoError(t, err)
	id := items[0].ID

	_, err = f.cleaning.Start(f.ctx, limpieza, id, dto.CleaningTransitionRequest{ExpectedState: "pendiente"})
	require.NoError(t, err)
	_, err = f.cleaning.Sterilize(f.ctx, limpieza, id, dto.CleaningTransitionRequest{ExpectedState: "en_proceso"})
	require.NoError(t, err)
	one := dec(1)
	item, err := f.cleaning.Approve(f.ctx, limpieza, id, dto.ApproveCleaningRequest{ExpectedState: "esterilizado", Quantity: &one})
	require.NoError(t, err)

	assert.Equal(t, string(entity.CleaningAprobado), item.Status)
	assert.Equal(t, string(entity.KitFinalizado), item.KitStatus)
	assert.True(t, f.stock("P").Equal(dec(6)))
	entradas := 0
	for _, m := range f.movements("P") {
		if m.Reference.Type == entity.RefLimpieza {
			entradas++
			assert.Equal(t, entity.MovementEntrada, m.Type)
			assert.True(t, m.Quantity.Equal(dec(1)))
		}
	}
	assert.Equal(t, 1, entradas)

	got, err := f.kits.Get(f.ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.KitFinalizado), got.Status)
	f.assertBalanced("P")
}

// barrierRunner, una vez armado, retiene cada transacción hasta que todas las llamadas
// concurrentes hicieron su lectura previa.
type barrierRunner struct {
	inner ports.TxRunner
	wg    *sync.WaitGroup
	armed *atomic.Bool
}

func (b barrierRunner) Run(ctx context.Context, fn func(ports.Repos) error) error {
	if b.armed.Load() {
		b.wg.Done()
		b.wg.Wait()
	}
	return b.inner.Run(ctx, fn)
}

func TestEscenarioD_TransicionesConcurrentesUnaGana(t *testing.T) {
	var (
		barrier sync.WaitGroup
		armed   atomic.Bool
	)
	f := newFixture(t, func(r ports.TxRunner) ports.TxRunner {
		return barrierRunner{inner: r, wg: &barrier, armed: &armed}
	})
	f.product("P", false, 10)
	k := f.create(line("P", 5))
	barrier.Add(2)
	armed.Store(true)

	errs := make([]error, 2)
	var done sync.WaitGroup
	for i := range errs {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			_, errs[i] = f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
		}(i)
	}
	done.Wait()

	ok, stale := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrStaleState):
			stale++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, stale)

	aprobados := 0
	for _, e := range f.events(k.ID) {
		if e.Action == "aprobado" {
			aprobados++
		}
	}
	assert.Equal(t, 1, aprobados)
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades
// ──────────────────────────────────────────────────────────────────────────────

func TestIdempotencia_RepetirTransicionNoDuplica(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 5))

	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)
	first, err := f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
	require.NoError(t, err)
	assert.True(t, first.Applied)
	events := len(f.events(k.ID))
	movs := len(f.movements("P"))

	again, err := f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, string(entity.KitListoEnvio), again.Status)
	approveAgain, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)
	assert.False(t, approveAgain.Applied)

	assert.Len(t, f.events(k.ID), events)
	assert.Len(t, f.movements("P"), movs)
	assert.True(t, f.stock("P").Equal(dec(5)))
}

func TestCancelarAntesDePrepararNoTocaInventario(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	f.product("Q", true, 4)
	before := len(f.movements("P")) + len(f.movements("Q"))

	k := f.create(line("P", 5), line("Q", 2))
	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)
	k, err = f.kits.Cancel(f.ctx, logistica, k.ID, dto.CancelRequest{ExpectedState: "preparando", Reason: "cirugía reprogramada"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.KitCancelado), k.Status)
	assert.Equal(t, "cirugía reprogramada", k.CancelReason)
	assert.True(t, f.stock("P").Equal(dec(10)))
	assert.True(t, f.stock("Q").Equal(dec(4)))
	assert.Equal(t, before, len(f.movements("P"))+len(f.movements("Q")))
}

func TestCancelarLiberaLoReservado(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 5))
	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)
	_, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
	require.NoError(t, err)
	require.True(t, f.stock("P").Equal(dec(5)))

	k, err = f.kits.Cancel(f.ctx, logistica, k.ID, dto.CancelRequest{ExpectedState: "listo_envio", Reason: "rechazado"})
	require.NoError(t, err)

	assert.True(t, f.stock("P").Equal(dec(10)))
	assert.True(t, k.Lines[0].Returned.Equal(dec(5)))
	f.assertBalanced("P")
}

func TestCancelarEnUsoLiberaSoloLoNoConsumido(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.use(f.delivered(f.create(line("P", 5))), map[string]int64{"P": 3})

	_, err := f.kits.Cancel(f.ctx, logistica, k.ID, dto.CancelRequest{ExpectedState: "en_uso", Reason: "error de registro"})
	require.NoError(t, err)

	assert.True(t, f.stock("P").Equal(dec(7)))
	f.assertBalanced("P")
}

func TestCancelarEnLimpiezaDesechaItemsAbiertos(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.use(f.delivered(f.create(line("P", 5))), map[string]int64{"P": 1})
	k, err := f.kits.Return(f.ctx, tecnico, k.ID, dto.ReturnRequest{ExpectedState: "en_uso"})
	require.NoError(t, err)
	require.Equal(t, string(entity.KitEnLimpieza), k.Status)

	_, err = f.kits.Finalize(f.ctx, logistica, k.ID, dto.FinalizeRequest{ExpectedState: "en_limpieza"})
	assert.ErrorIs(t, err, domain.ErrIncompleteReconciliation)

	items, err := f.repos.Cleaning.ListByKit(f.ctx, k.ID)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	stockBefore := f.stock("P")
	movsBefore := len(f.movements("P"))
	eventsBefore := len(f.events(k.ID))

	got, err := f.kits.Cancel(f.ctx, logistica, k.ID, dto.CancelRequest{ExpectedState: "en_limpieza", Reason: "instrumental extraviado"})
	require.NoError(t, err)
	assert.True(t, got.Applied)
	assert.Equal(t, string(entity.KitCancelado), got.Status)

	items, err = f.repos.Cleaning.ListByKit(f.ctx, k.ID)
	require.NoError(t, err)
	for _, it := range items {
		assert.Equal(t, entity.CleaningDesechado, it.Status)
		assert.True(t, it.Approved.IsZero())
	}

	// Sin crédito: el stock y los movimientos no cambian y el libro sigue cuadrado.
	assert.True(t, f.stock("P").Equal(stockBefore))
	assert.Len(t, f.movements("P"), movsBefore)
	f.assertBalanced("P")

	events := f.events(k.ID)
	require.Len(t, events, eventsBefore+len(items)+1)
	discards := 0
	for _, ev := range events[eventsBefore:] {
		if ev.Action == "limpieza_desechado" {
			discards++
			assert.Equal(t, string(entity.CleaningDesechado), ev.ToState)
		}
	}
	assert.Equal(t, len(items), discards)
	assert.Equal(t, string(entity.KitCancelado), events[len(events)-1].ToState)
}

func TestInvariantesDeCantidades(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.delivered(f.create(line("P", 5)))

	_, err := f.kits.RecordUsage(f.ctx, tecnico, k.ID, dto.UsageRequest{
		ExpectedState: "entregado",
		Lines:         []dto.LineQuantity{{LineID: lineID(k, "P"), Quantity: dec(6)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	k = f.use(k, map[string]int64{"P": 5})
	for _, l := range k.Lines {
		assert.True(t, l.Prepared.LessThanOrEqual(l.Requested))
		assert.True(t, l.Sent.LessThanOrEqual(l.Prepared))
		assert.True(t, l.Used.LessThanOrEqual(l.Sent))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Guardas y errores
// ──────────────────────────────────────────────────────────────────────────────

func TestEstadoEsperadoDistintoEsStale(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 1))

	_, err := f.kits.Dispatch(f.ctx, mensajero, k.ID, dto.DispatchRequest{ExpectedState: "listo_envio"})
	assert.ErrorIs(t, err, domain.ErrStaleState)
}

func TestAristaIlegalEsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 1))

	_, err := f.kits.Dispatch(f.ctx, mensajero, k.ID, dto.DispatchRequest{ExpectedState: "solicitado"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTerminalNoAdmiteMutaciones(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 1))
	_, err := f.kits.Cancel(f.ctx, logistica, k.ID, dto.CancelRequest{ExpectedState: "solicitado", Reason: "x"})
	require.NoError(t, err)

	_, err = f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "cancelado"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSinActorEsNoAutorizado(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 1))

	_, err := f.kits.Approve(f.ctx, "", k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestKitInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.kits.Approve(f.ctx, logistica, "no-existe", dto.ApproveKitRequest{ExpectedState: "solicitado"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCrear_ValidaLineas(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)

	_, err := f.kits.Create(f.ctx, logistica, dto.CreateKitRequest{CaseID: "c", CaseNumber: "n", SourceLocationID: bodegaID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.kits.Create(f.ctx, logistica, dto.CreateKitRequest{
		CaseID: "c", CaseNumber: "n", SourceLocationID: bodegaID,
		Lines: []dto.KitLineRequest{line("P", 1), line("P", 2)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.kits.Create(f.ctx, logistica, dto.CreateKitRequest{
		CaseID: "c", CaseNumber: "n", SourceLocationID: bodegaID,
		Lines: []dto.KitLineRequest{line("X", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCrear_RegistraEventoDeCaso(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 1))

	assert.Regexp(t, `^KIT-\d{8}-[0-9A-F]{6}$`, k.Code)
	caseEvents, err := f.repos.Trace.ListByEntity(f.ctx, entity.TraceEntityCase, "case-1")
	require.NoError(t, err)
	require.Len(t, caseEvents, 1)
	assert.Equal(t, "kit_asignado", caseEvents[0].Action)
	assert.Equal(t, []string{"preparando", "cancelado"}, k.NextStates)
}

// ──────────────────────────────────────────────────────────────────────────────
// Preparación y reserva
// ──────────────────────────────────────────────────────────────────────────────

func TestPreparar_StockParcialAdvierte(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 3)
	k := f.create(line("P", 5))
	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)

	k, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.KitListoEnvio), k.Status)
	assert.True(t, k.Lines[0].Prepared.Equal(dec(3)))
	assert.Len(t, k.Warnings, 1)
	assert.True(t, f.stock("P").IsZero())
	f.assertBalanced("P")
}

func TestPreparar_StockCompletoObligatorio(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 3)
	k := f.create(line("P", 5))
	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)

	_, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando", RequireFullStock: true})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.True(t, detail.Available.Equal(dec(3)))

	got, err := f.kits.Get(f.ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.KitPreparando), got.Status)
	assert.True(t, f.stock("P").Equal(dec(3)))
}

// staleStock reporta en Get más stock del que existe, como una lectura anterior a una
// reserva concurrente que ya confirmó.
type staleStock struct {
	repository.InventoryRecordRepository
	extra decimal.Decimal
}

func (s staleStock) Get(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	rec, err := s.InventoryRecordRepository.Get(ctx, productID, locationID)
	if err != nil || rec == nil {
		return rec, err
	}
	c := *rec
	c.Quantity = c.Quantity.Add(s.extra)
	return &c, nil
}

type staleStockRunner struct {
	inner ports.TxRunner
	extra decimal.Decimal
}

func (r staleStockRunner) Run(ctx context.Context, fn func(ports.Repos) error) error {
	return r.inner.Run(ctx, func(repos ports.Repos) error {
		repos.Stock = staleStock{InventoryRecordRepository: repos.Stock, extra: r.extra}
		return fn(repos)
	})
}

func TestPreparar_SaldoCambiaAntesDeReservarTruncaConAdvertencia(t *testing.T) {
	f := newFixture(t, func(r ports.TxRunner) ports.TxRunner {
		return staleStockRunner{inner: r, extra: dec(7)}
	})
	f.product("P", false, 3)
	k := f.create(line("P", 5))
	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)

	k, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.KitListoEnvio), k.Status)
	assert.True(t, k.Lines[0].Prepared.Equal(dec(3)))
	assert.NotEmpty(t, k.Warnings)
	assert.True(t, f.stock("P").IsZero())
	f.assertBalanced("P")
}

func TestPreparar_SaldoCambiaConStockCompletoObligatorioFalla(t *testing.T) {
	f := newFixture(t, func(r ports.TxRunner) ports.TxRunner {
		return staleStockRunner{inner: r, extra: dec(7)}
	})
	f.product("P", false, 3)
	k := f.create(line("P", 5))
	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)

	_, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando", RequireFullStock: true})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.stock("P").Equal(dec(3)))
	f.assertBalanced("P")
}

func TestPreparar_AlertaDeStockBajoUnaVezPorCruce(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	require.NoError(t, f.repos.Stock.SetMinimum(f.ctx, "P", bodegaID, dec(6)))

	prepare := func(qty int64) {
		k := f.create(line("P", qty))
		_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
		require.NoError(t, err)
		_, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
		require.NoError(t, err)
	}
	prepare(5) // 10 → 5 cruza el mínimo
	prepare(2) // 5 → 3 ya estaba por debajo

	lowStock := 0
	for _, n := range f.store.Outbox() {
		if n.Type == entity.NotificationLowStock {
			lowStock++
		}
	}
	assert.Equal(t, 1, lowStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Despacho, entrega y devolución
// ──────────────────────────────────────────────────────────────────────────────

func TestDespacho_EmiteQRYEntregaPorToken(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.create(line("P", 2))
	_, err := f.kits.Approve(f.ctx, logistica, k.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)
	_, err = f.kits.MarkReady(f.ctx, logistica, k.ID, dto.MarkReadyRequest{ExpectedState: "preparando"})
	require.NoError(t, err)
	k, err = f.kits.Dispatch(f.ctx, mensajero, k.ID, dto.DispatchRequest{ExpectedState: "listo_envio"})
	require.NoError(t, err)

	require.True(t, qrtoken.Valid(k.QRToken))
	assert.Equal(t, mensajero, k.CourierID)
	assert.Equal(t, entity.LocationTransito, k.LocationID)

	byToken, err := f.kits.GetByQRToken(f.ctx, k.QRToken)
	require.NoError(t, err)
	assert.Equal(t, k.ID, byToken.ID)

	k, err = f.kits.DeliverByQR(f.ctx, tecnico, k.QRToken, dto.DeliverRequest{
		Lines: []dto.LineQuantity{{LineID: lineID(k, "P"), Quantity: dec(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.KitEntregado), k.Status)
	assert.True(t, k.Lines[0].Received.Equal(dec(1)))
	assert.NotEmpty(t, k.Lines[0].Notes)
	assert.Len(t, k.Warnings, 1)
}

func TestDevolucion_DesechableNoSeAcredita(t *testing.T) {
	f := newFixture(t)
	f.product("D", true, 10)
	k := f.use(f.delivered(f.create(line("D", 4))), map[string]int64{"D": 1})

	k, err := f.kits.Return(f.ctx, tecnico, k.ID, dto.ReturnRequest{ExpectedState: "en_uso"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.KitFinalizado), k.Status)
	assert.True(t, f.stock("D").Equal(dec(6)))
	assert.True(t, k.Lines[0].Returned.IsZero())
	f.assertBalanced("D")
}

func TestDevolucion_SinUsoDesdeEntregado(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.delivered(f.create(line("P", 4)))

	k, err := f.kits.Return(f.ctx, tecnico, k.ID, dto.ReturnRequest{ExpectedState: "entregado"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.KitFinalizado), k.Status)
	assert.True(t, f.stock("P").Equal(dec(10)))
	assert.Equal(t, bodegaID, k.LocationID)
}

func TestDevolucion_LineaAjenaEsInvalida(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	k := f.delivered(f.create(line("P", 4)))

	_, err := f.kits.Return(f.ctx, tecnico, k.ID, dto.ReturnRequest{
		ExpectedState: "entregado",
		Lines:         []dto.ReturnLine{{LineID: "otra", Opened: boolPtr(true)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.kits.Get(f.ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.KitEntregado), got.Status)
}

func TestListar_PorEstado(t *testing.T) {
	f := newFixture(t)
	f.product("P", false, 10)
	a := f.create(line("P", 1))
	f.create(line("P", 1))
	_, err := f.kits.Approve(f.ctx, logistica, a.ID, dto.ApproveKitRequest{ExpectedState: "solicitado"})
	require.NoError(t, err)

	list, err := f.kits.List(f.ctx, repository.KitFilter{Status: entity.KitPreparando})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, a.ID, list.Items[0].ID)

	_, err = f.kits.List(f.ctx, repository.KitFilter{Status: "perdido"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
