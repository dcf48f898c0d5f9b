package kit

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	cleaningrules "github.com/jhoicas/kitquirurgico-api/internal/domain/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	domaininv "github.com/jhoicas/kitquirurgico-api/internal/domain/inventory"
	kitrules "github.com/jhoicas/kitquirurgico-api/internal/domain/kit"
)

// Approve solicitado → preparando. Aprobación de logística; no revisa stock.
func (uc *UseCase) Approve(ctx context.Context, actor, kitID string, in dto.ApproveKitRequest) (*dto.KitResponse, error) {
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitPreparando, func(t *txn) error {
		return t.advance(entity.KitPreparando, "", nil)
	})
}

// MarkReady preparando → listo_envio. Reserva por línea lo preparado desde la bodega de origen
// (un movimiento salida por línea). Si no alcanza el stock, reserva lo disponible y devuelve una
// advertencia, salvo que el llamador pida stock completo.
func (uc *UseCase) MarkReady(ctx context.Context, actor, kitID string, in dto.MarkReadyRequest) (*dto.KitResponse, error) {
	overrides, err := quantities(in.Lines)
	if err != nil {
		return nil, err
	}
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitListoEnvio, func(t *txn) error {
		if err := t.checkLines(overrides); err != nil {
			return err
		}
		return t.advance(entity.KitListoEnvio, "", func(meta map[string]any) error {
			reserved := map[string]string{}
			for _, line := range t.lines {
				want := line.Requested
				if q, ok := overrides[line.ID]; ok {
					if q.GreaterThan(line.Requested) {
						return domain.Invalid("línea %s: preparado %s excede lo solicitado %s", line.ID, q, line.Requested)
					}
					want = q
				}
				got, err := t.reserve(line, want, in.RequireFullStock)
				if err != nil {
					return err
				}
				line.Prepared = got
				if err := t.saveLine(line); err != nil {
					return err
				}
				reserved[line.ProductID] = got.String()
			}
			meta["reservado"] = reserved
			if len(t.warnings) > 0 {
				meta["advertencias"] = t.warnings
			}
			return nil
		})
	})
}

// reserve aparta want unidades de la línea. El faltante se trunca solo con advertencia explícita.
func (t *txn) reserve(line *entity.KitProductLine, want decimal.Decimal, requireFull bool) (decimal.Decimal, error) {
	if !want.IsPositive() {
		return decimal.Zero, nil
	}
	source := t.kit.SourceLocationID
	available := decimal.Zero
	rec, err := t.repos.Stock.Get(t.ctx, line.ProductID, source)
	if err != nil {
		return decimal.Zero, err
	}
	if rec != nil {
		available = rec.Quantity
	}
	reservable, shortfall := domaininv.PartialReservation(want, available)
	if shortfall.IsPositive() {
		if requireFull {
			return decimal.Zero, &domain.InsufficientStockError{
				ProductID: line.ProductID, LocationID: source, Requested: want, Available: available,
			}
		}
		t.warn("stock insuficiente para %s: solicitado %s, reservado %s", line.ProductID, want, reservable)
	}
	if !reservable.IsPositive() {
		return decimal.Zero, nil
	}
	reason := "reserva de kit " + t.kit.Code
	_, err = t.ledger.Reserve(t.ctx, t.repos, t.movement(line.ProductID, source, reservable, reason))
	var short *domain.InsufficientStockError
	if err == nil || requireFull || !errors.As(err, &short) {
		return reservable, err
	}
	// El saldo cambió entre la lectura y el débito: se reintenta una vez con lo que queda.
	reservable = decimal.Min(reservable, short.Available)
	t.warn("stock insuficiente para %s: solicitado %s, reservado %s", line.ProductID, want, reservable)
	if !reservable.IsPositive() {
		return decimal.Zero, nil
	}
	if _, err := t.ledger.Reserve(t.ctx, t.repos, t.movement(line.ProductID, source, reservable, reason)); err != nil {
		return decimal.Zero, err
	}
	return reservable, nil
}

// Dispatch listo_envio → en_transito. Emite el token QR y fija lo enviado igual a lo preparado.
func (uc *UseCase) Dispatch(ctx context.Context, actor, kitID string, in dto.DispatchRequest) (*dto.KitResponse, error) {
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitEnTransito, func(t *txn) error {
		if t.kit.QRToken == "" {
			t.kit.QRToken = uc.newToken()
		}
		t.kit.CourierID = in.CourierID
		if t.kit.CourierID == "" {
			t.kit.CourierID = actor
		}
		return t.advance(entity.KitEnTransito, "", func(meta map[string]any) error {
			for _, line := range t.lines {
				line.Sent = line.Prepared
				if err := t.saveLine(line); err != nil {
					return err
				}
			}
			meta["mensajero"] = t.kit.CourierID
			return nil
		})
	})
}

// Deliver en_transito → entregado. El técnico registra lo recibido por línea; las diferencias
// con lo enviado quedan anotadas sin bloquear la entrega.
func (uc *UseCase) Deliver(ctx context.Context, actor, kitID string, in dto.DeliverRequest) (*dto.KitResponse, error) {
	received, err := quantities(in.Lines)
	if err != nil {
		return nil, err
	}
	if in.LocationID != "" {
		if err := uc.requireLocation(ctx, in.LocationID); err != nil {
			return nil, err
		}
	}
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitEntregado, func(t *txn) error {
		if err := t.checkLines(received); err != nil {
			return err
		}
		return t.advance(entity.KitEntregado, in.LocationID, func(meta map[string]any) error {
			var discrepancies []map[string]string
			for _, line := range t.lines {
				got := line.Sent
				if q, ok := received[line.ID]; ok {
					got = q
				}
				line.Received = got
				if !got.Equal(line.Sent) {
					line.Notes = fmt.Sprintf("recibido %s de %s enviado", got, line.Sent)
					discrepancies = append(discrepancies, map[string]string{
						"linea": line.ID, "enviado": line.Sent.String(), "recibido": got.String(),
					})
				}
				if err := t.saveLine(line); err != nil {
					return err
				}
			}
			if len(discrepancies) > 0 {
				meta["discrepancias"] = discrepancies
				t.warn("%d línea(s) con diferencias entre enviado y recibido", len(discrepancies))
			}
			return nil
		})
	})
}

// DeliverByQR confirma la entrega buscando el kit por el token del QR.
// Sin estado esperado se asume en_transito.
func (uc *UseCase) DeliverByQR(ctx context.Context, actor, token string, in dto.DeliverRequest) (*dto.KitResponse, error) {
	k, err := uc.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if in.ExpectedState == "" {
		in.ExpectedState = string(entity.KitEnTransito)
	}
	return uc.Deliver(ctx, actor, k.ID, in)
}

// RecordUsage entregado → en_uso. Consumo intraoperatorio por línea; omitidas quedan en cero.
func (uc *UseCase) RecordUsage(ctx context.Context, actor, kitID string, in dto.UsageRequest) (*dto.KitResponse, error) {
	used, err := quantities(in.Lines)
	if err != nil {
		return nil, err
	}
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitEnUso, func(t *txn) error {
		if err := t.checkLines(used); err != nil {
			return err
		}
		return t.advance(entity.KitEnUso, "", func(meta map[string]any) error {
			consumed := map[string]string{}
			for _, line := range t.lines {
				q := used[line.ID]
				if q.GreaterThan(line.Sent) {
					return domain.Invalid("línea %s: utilizado %s excede lo enviado %s", line.ID, q, line.Sent)
				}
				line.Used = q
				if err := t.saveLine(line); err != nil {
					return err
				}
				consumed[line.ProductID] = q.String()
			}
			meta["utilizado"] = consumed
			return nil
		})
	})
}

// Return en_uso|entregado → devuelto y concilia cada línea: desechables se descartan, lo nunca
// abierto se reingresa directo al inventario y lo abierto pasa a limpieza. En la misma unidad
// de trabajo el kit sigue a en_limpieza si se creó algún ítem de limpieza, o a finalizado.
func (uc *UseCase) Return(ctx context.Context, actor, kitID string, in dto.ReturnRequest) (*dto.KitResponse, error) {
	opened := make(map[string]bool, len(in.Lines))
	seen := make(map[string]bool, len(in.Lines))
	for _, l := range in.Lines {
		if l.LineID == "" {
			return nil, domain.Invalid("line_id obligatorio")
		}
		if seen[l.LineID] {
			return nil, domain.Invalid("línea %s repetida", l.LineID)
		}
		seen[l.LineID] = true
		if l.Opened != nil {
			opened[l.LineID] = *l.Opened
		}
	}
	if in.LocationID != "" {
		if err := uc.requireLocation(ctx, in.LocationID); err != nil {
			return nil, err
		}
	}
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitDevuelto, func(t *txn) error {
		for _, l := range in.Lines {
			if _, err := t.line(l.LineID); err != nil {
				return err
			}
		}
		var plan kitrules.Plan
		err := t.advance(entity.KitDevuelto, in.LocationID, func(meta map[string]any) error {
			plan = kitrules.Reconcile(t.lines, opened)
			summary, err := t.applyPlan(plan)
			if err != nil {
				return err
			}
			meta["conciliacion"] = summary
			return nil
		})
		if err != nil {
			return err
		}
		return t.advance(plan.NextState(), in.LocationID, func(meta map[string]any) error {
			meta["origen"] = "conciliacion"
			return nil
		})
	})
}

// applyPlan ejecuta las decisiones de conciliación sobre libro e ítems de limpieza.
func (t *txn) applyPlan(plan kitrules.Plan) (map[string]string, error) {
	summary := make(map[string]string, len(plan.Lines))
	for _, lp := range plan.Lines {
		line := lp.Line
		switch lp.Decision {
		case kitrules.DecisionRestock:
			mov := t.movement(line.ProductID, t.kit.LocationID, lp.Quantity, "devolución sin abrir del kit "+t.kit.Code)
			if _, err := t.ledger.Credit(t.ctx, t.repos, mov); err != nil {
				return nil, err
			}
			line.Returned = lp.Quantity
		case kitrules.DecisionClean:
			item := &entity.CleaningItem{
				ID:               newID(),
				KitID:            t.kit.ID,
				KitProductLineID: line.ID,
				ProductID:        line.ProductID,
				LocationID:       t.kit.LocationID,
				ToRecover:        lp.Quantity,
				Approved:         decimal.Zero,
				Status:           entity.CleaningPendiente,
				Disposable:       line.Disposable,
				CreatedAt:        t.now,
				UpdatedAt:        t.now,
			}
			if err := t.repos.Cleaning.Create(t.ctx, item); err != nil {
				return nil, err
			}
			line.Returned = lp.Quantity
		}
		if err := t.saveLine(line); err != nil {
			return nil, err
		}
		summary[line.ProductID] = fmt.Sprintf("%s:%s", lp.Decision, lp.Quantity)
	}
	return summary, nil
}

// Finalize en_limpieza → finalizado manual. Bloqueado mientras quede un ítem de limpieza sin cerrar.
// Normalmente el cierre ocurre solo al aprobar o desechar el último ítem.
func (uc *UseCase) Finalize(ctx context.Context, actor, kitID string, in dto.FinalizeRequest) (*dto.KitResponse, error) {
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitFinalizado, func(t *txn) error {
		if err := t.requireCleaned(); err != nil {
			return err
		}
		return t.advance(entity.KitFinalizado, "", nil)
	})
}

// Cancel lleva un kit no terminal a cancelado. Libera al inventario de origen lo reservado
// y no consumido (entrada por línea). Los ítems de limpieza abiertos se desechan sin crédito.
func (uc *UseCase) Cancel(ctx context.Context, actor, kitID string, in dto.CancelRequest) (*dto.KitResponse, error) {
	if in.Reason == "" {
		return nil, domain.Invalid("el motivo de cancelación es obligatorio")
	}
	return uc.run(ctx, kitID, actor, entity.KitStatus(in.ExpectedState), entity.KitCancelado, func(t *txn) error {
		prior := t.kit.Status
		discarded := 0
		if prior == entity.KitEnLimpieza || prior == entity.KitDevuelto {
			n, err := t.discardOpenItems(in.Reason)
			if err != nil {
				return err
			}
			discarded = n
		}
		t.kit.CancelReason = in.Reason
		return t.advance(entity.KitCancelado, "", func(meta map[string]any) error {
			meta["motivo"] = in.Reason
			if discarded > 0 {
				meta["items_desechados"] = discarded
			}
			if !holdsReservation(prior) {
				return nil
			}
			released := map[string]string{}
			for _, line := range t.lines {
				qty := line.Outstanding().Sub(line.Returned)
				if !qty.IsPositive() {
					continue
				}
				mov := t.movement(line.ProductID, t.kit.SourceLocationID, qty, "liberación por cancelación del kit "+t.kit.Code)
				if _, err := t.ledger.Credit(t.ctx, t.repos, mov); err != nil {
					return err
				}
				line.Returned = line.Returned.Add(qty)
				if err := t.saveLine(line); err != nil {
					return err
				}
				released[line.ProductID] = qty.String()
			}
			meta["liberado"] = released
			return nil
		})
	})
}

// holdsReservation estados en los que el kit tiene stock apartado sin devolver.
func holdsReservation(s entity.KitStatus) bool {
	switch s {
	case entity.KitListoEnvio, entity.KitEnTransito, entity.KitEntregado, entity.KitEnUso:
		return true
	}
	return false
}

func (t *txn) requireCleaned() error {
	items, err := t.repos.Cleaning.ListByKit(t.ctx, t.kit.ID)
	if err != nil {
		return err
	}
	if cleaningrules.AllTerminal(items) {
		return nil
	}
	pending := 0
	for _, it := range items {
		if !it.Status.Terminal() {
			pending++
		}
	}
	return fmt.Errorf("%w: %d ítem(s) del kit %s", domain.ErrIncompleteReconciliation, pending, t.kit.ID)
}

// discardOpenItems lleva a desechado cada ítem de limpieza no terminal del kit, sin crédito de
// inventario, con un evento de limpieza por ítem. Devuelve cuántos ítems cerró.
func (t *txn) discardOpenItems(reason string) (int, error) {
	items, err := t.repos.Cleaning.ListByKit(t.ctx, t.kit.ID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		if it.Status.Terminal() {
			continue
		}
		from := it.Status
		if !cleaningrules.CanTransition(from, entity.CleaningDesechado) {
			return n, fmt.Errorf("%w: ítem %s %s → %s", domain.ErrInvalidTransition, it.ID, from, entity.CleaningDesechado)
		}
		c := *it
		c.Status = entity.CleaningDesechado
		c.Approved = decimal.Zero
		c.ApprovedBy = t.actor
		c.Notes = reason
		c.UpdatedAt = t.now
		if err := t.repos.Cleaning.UpdateState(t.ctx, &c, from); err != nil {
			return n, err
		}
		meta := map[string]any{"item_id": c.ID, "producto": c.ProductID, "motivo": reason, "cancelacion": true}
		err := appendEvent(t.ctx, t.repos, entity.TraceEntityKit, t.kit.ID,
			"limpieza_"+string(entity.CleaningDesechado), string(from), string(entity.CleaningDesechado), t.actor, t.now, meta)
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// checkLines verifica que cada línea referida pertenezca al kit.
func (t *txn) checkLines(q map[string]decimal.Decimal) error {
	for id := range q {
		if _, err := t.line(id); err != nil {
			return err
		}
	}
	return nil
}

// quantities indexa las cantidades por línea validando que no sean negativas ni repetidas.
func quantities(lines []dto.LineQuantity) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		if l.LineID == "" {
			return nil, domain.Invalid("line_id obligatorio")
		}
		if l.Quantity.IsNegative() {
			return nil, domain.Invalid("línea %s: cantidad negativa", l.LineID)
		}
		if _, dup := out[l.LineID]; dup {
			return nil, domain.Invalid("línea %s repetida", l.LineID)
		}
		out[l.LineID] = l.Quantity
	}
	return out, nil
}

func (uc *UseCase) requireLocation(ctx context.Context, id string) error {
	loc, err := uc.locationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("ubicación %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
