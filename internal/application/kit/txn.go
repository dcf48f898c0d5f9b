package kit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/application/inventory"
	"github.com/jhoicas/kitquirurgico-api/internal/application/notification"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	cleaningrules "github.com/jhoicas/kitquirurgico-api/internal/domain/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	kitrules "github.com/jhoicas/kitquirurgico-api/internal/domain/kit"
)

// Acciones registradas en la trazabilidad al entrar a cada estado.
var actions = map[entity.KitStatus]string{
	entity.KitSolicitado: "solicitado",
	entity.KitPreparando: "aprobado",
	entity.KitListoEnvio: "preparado",
	entity.KitEnTransito: "despachado",
	entity.KitEntregado:  "entregado",
	entity.KitEnUso:      "uso_registrado",
	entity.KitDevuelto:   "devuelto",
	entity.KitEnLimpieza: "enviado_limpieza",
	entity.KitFinalizado: "finalizado",
	entity.KitCancelado:  "cancelado",
}

// Hop transición aplicada y confirmada.
type Hop struct {
	From entity.KitStatus
	To   entity.KitStatus
}

// txn estado de una transición dentro de su transacción.
type txn struct {
	ctx      context.Context
	repos    ports.Repos
	ledger   *inventory.Ledger
	kit      *entity.Kit
	lines    []*entity.KitProductLine
	actor    string
	now      time.Time
	hops     []Hop
	warnings []string
}

// advance reclama el kit moviéndolo a `to` con un UPDATE condicionado a su estado actual,
// ejecuta effects y registra el evento de trazabilidad y la notificación del cambio.
// Si otro actor movió el kit primero, el reclamo falla con domain.ErrStaleState antes de
// cualquier efecto.
func (t *txn) advance(to entity.KitStatus, destination string, effects func(meta map[string]any) error) error {
	from := t.kit.Status
	if !kitrules.CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, from, to)
	}
	t.kit.LocationID = kitrules.LocationAfter(t.kit, to, destination)
	t.kit.Status = to
	t.kit.UpdatedAt = t.now
	t.kit.Stamp(to, t.actor, t.now)
	if err := t.repos.Kits.UpdateState(t.ctx, t.kit, from); err != nil {
		return err
	}

	meta := map[string]any{}
	if effects != nil {
		if err := effects(meta); err != nil {
			return err
		}
	}
	return t.record(from, to, meta)
}

// record escribe el único evento de trazabilidad de la transición y encola la notificación.
func (t *txn) record(from, to entity.KitStatus, meta map[string]any) error {
	if t.kit.LocationID != "" {
		meta["ubicacion"] = t.kit.LocationID
	}
	if err := appendEvent(t.ctx, t.repos, entity.TraceEntityKit, t.kit.ID, actions[to], string(from), string(to), t.actor, t.now, meta); err != nil {
		return err
	}
	payload := entity.KitStatusPayload{
		KitID:      t.kit.ID,
		CaseNumber: t.kit.CaseNumber,
		FromState:  string(from),
		ToState:    string(to),
		Actors:     t.kit.Actors(),
	}
	if err := notification.EnqueueKitStatus(t.ctx, t.repos.Outbox, payload, t.now); err != nil {
		return err
	}
	t.hops = append(t.hops, Hop{From: from, To: to})
	return nil
}

func (t *txn) warn(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

func (t *txn) line(id string) (*entity.KitProductLine, error) {
	for _, l := range t.lines {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, domain.Invalid("la línea %s no pertenece al kit %s", id, t.kit.ID)
}

func (t *txn) saveLine(l *entity.KitProductLine) error {
	if !l.QuantitiesConsistent() {
		return domain.Invalid("cantidades inconsistentes en la línea %s", l.ID)
	}
	l.UpdatedAt = t.now
	return t.repos.KitLines.Update(t.ctx, l)
}

func (t *txn) movement(productID, locationID string, qty decimal.Decimal, reason string) inventory.MovementInput {
	return inventory.MovementInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   qty,
		Ref:        entity.MovementRef{Type: entity.RefKit, ID: t.kit.ID},
		Reason:     reason,
		Actor:      t.actor,
		At:         t.now,
	}
}

// CloseIfCleaned cierra el kit (en_limpieza → finalizado) cuando todos sus ítems de limpieza
// son terminales. Se llama dentro de la transacción que aprobó o desechó un ítem: bloquea la
// fila del kit para que dos aprobaciones concurrentes no dejen el kit abierto ni lo cierren dos veces.
// Devuelve el salto aplicado o nil si el kit sigue en limpieza.
func CloseIfCleaned(ctx context.Context, repos ports.Repos, kitID, actor string, now time.Time) (*Hop, error) {
	k, err := repos.Kits.LockByID(ctx, kitID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, domain.ErrNotFound
	}
	if k.Status != entity.KitEnLimpieza {
		return nil, nil
	}
	items, err := repos.Cleaning.ListByKit(ctx, kitID)
	if err != nil {
		return nil, err
	}
	if !cleaningrules.AllTerminal(items) {
		return nil, nil
	}
	t := &txn{ctx: ctx, repos: repos, kit: k, actor: actor, now: now}
	err = t.advance(entity.KitFinalizado, "", func(meta map[string]any) error {
		meta["items_limpieza"] = len(items)
		meta["cierre"] = "automatico"
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t.hops[0], nil
}

func appendEvent(
	ctx context.Context,
	repos ports.Repos,
	entityType, entityID, action, from, to, actor string,
	at time.Time,
	meta map[string]any,
) error {
	var raw json.RawMessage
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("serializar metadata de trazabilidad: %w", err)
		}
		raw = b
	}
	return repos.Trace.Append(ctx, &entity.TraceabilityEvent{
		ID:         uuid.New().String(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FromState:  from,
		ToState:    to,
		Actor:      actor,
		Metadata:   raw,
		CreatedAt:  at,
	})
}

func newID() string { return uuid.New().String() }
