// Package cleaning casos de uso del sub-flujo de limpieza y esterilización de los ítems
// recuperados de un kit devuelto.
package cleaning

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/application/inventory"
	"github.com/jhoicas/kitquirurgico-api/internal/application/kit"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	cleaningrules "github.com/jhoicas/kitquirurgico-api/internal/domain/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
	"github.com/jhoicas/kitquirurgico-api/pkg/logger"
)

// UseCase transiciones de ítems de limpieza. Aprobar o desechar reevalúa en la misma
// transacción si el kit padre puede cerrarse.
type UseCase struct {
	txRunner    ports.TxRunner
	ledger      *inventory.Ledger
	itemRepo    repository.CleaningItemRepository
	committed   ports.Committed
	kitObserver ports.TransitionObserver
	observer    ports.CleaningObserver
	log         *logger.Logger
	now         func() time.Time
}

// Deps dependencias del caso de uso. Committed, observadores y Log son opcionales.
type Deps struct {
	TxRunner    ports.TxRunner
	Ledger      *inventory.Ledger
	ItemRepo    repository.CleaningItemRepository
	Committed   ports.Committed
	KitObserver ports.TransitionObserver
	Observer    ports.CleaningObserver
	Log         *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:    d.TxRunner,
		ledger:      d.Ledger,
		itemRepo:    d.ItemRepo,
		committed:   d.Committed,
		kitObserver: d.KitObserver,
		observer:    d.Observer,
		log:         log.Component("limpieza"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Get obtiene un ítem de limpieza.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.CleaningItemResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(item)
	return &resp, nil
}

// List lista ítems por estado (la cola de trabajo de limpieza) o por kit.
func (uc *UseCase) List(ctx context.Context, status entity.CleaningStatus, kitID string, page dto.PageRequest) (*dto.CleaningListResponse, error) {
	var (
		items []*entity.CleaningItem
		err   error
	)
	switch {
	case kitID != "":
		items, err = uc.itemRepo.ListByKit(ctx, kitID)
	case status != "":
		if !status.Valid() {
			return nil, domain.Invalid("estado de limpieza %q", status)
		}
		items, err = uc.itemRepo.ListByStatus(ctx, status, page.Limit, page.Offset)
	default:
		items, err = uc.itemRepo.ListByStatus(ctx, entity.CleaningPendiente, page.Limit, page.Offset)
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.CleaningItemResponse, 0, len(items))
	for _, it := range items {
		if kitID != "" && status != "" && it.Status != status {
			continue
		}
		out = append(out, toResponse(it))
	}
	return &dto.CleaningListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Start pendiente → en_proceso.
func (uc *UseCase) Start(ctx context.Context, actor, id string, in dto.CleaningTransitionRequest) (*dto.CleaningItemResponse, error) {
	return uc.run(ctx, id, actor, entity.CleaningStatus(in.ExpectedState), entity.CleaningEnProceso, in.Notes, nil)
}

// Sterilize en_proceso → esterilizado.
func (uc *UseCase) Sterilize(ctx context.Context, actor, id string, in dto.CleaningTransitionRequest) (*dto.CleaningItemResponse, error) {
	return uc.run(ctx, id, actor, entity.CleaningStatus(in.ExpectedState), entity.CleaningEsterilizado, in.Notes, nil)
}

// Approve esterilizado → aprobado. Acredita al inventario exactamente lo aprobado (una entrada,
// ninguna si se aprueba cero) y cierra el kit si era su último ítem abierto.
func (uc *UseCase) Approve(ctx context.Context, actor, id string, in dto.ApproveCleaningRequest) (*dto.CleaningItemResponse, error) {
	if in.Quantity != nil && in.Quantity.IsNegative() {
		return nil, domain.Invalid("la cantidad aprobada no puede ser negativa")
	}
	return uc.run(ctx, id, actor, entity.CleaningStatus(in.ExpectedState), entity.CleaningAprobado, in.Notes,
		func(ctx context.Context, repos ports.Repos, item *entity.CleaningItem, meta map[string]any) error {
			qty, err := cleaningrules.ApprovedQuantity(item, in.Quantity)
			if err != nil {
				return err
			}
			item.Approved = qty
			item.ApprovedBy = actor
			meta["aprobado"] = qty.String()
			meta["a_recuperar"] = item.ToRecover.String()
			if !qty.IsPositive() {
				return nil
			}
			_, err = uc.ledger.Credit(ctx, repos, inventory.MovementInput{
				ProductID:  item.ProductID,
				LocationID: item.LocationID,
				Quantity:   qty,
				Type:       entity.MovementEntrada,
				Ref:        entity.MovementRef{Type: entity.RefLimpieza, ID: item.ID},
				Reason:     "aprobación de limpieza",
				Actor:      actor,
				At:         uc.now(),
			})
			return err
		})
}

// Discard lleva un ítem no terminal a desechado, sin crédito de inventario.
func (uc *UseCase) Discard(ctx context.Context, actor, id string, in dto.DiscardCleaningRequest) (*dto.CleaningItemResponse, error) {
	if in.Reason == "" {
		return nil, domain.Invalid("el motivo es obligatorio")
	}
	return uc.run(ctx, id, actor, entity.CleaningStatus(in.ExpectedState), entity.CleaningDesechado, in.Reason,
		func(_ context.Context, _ ports.Repos, item *entity.CleaningItem, meta map[string]any) error {
			item.Approved = decimal.Zero
			item.ApprovedBy = actor
			meta["motivo"] = in.Reason
			return nil
		})
}

type effectFn func(ctx context.Context, repos ports.Repos, item *entity.CleaningItem, meta map[string]any) error

// run aplica una transición del ítem: reclamo condicionado al estado esperado, efectos, evento
// de trazabilidad sobre el kit y, en estados terminales, el cierre del kit.
func (uc *UseCase) run(
	ctx context.Context,
	id, actor string,
	expected, target entity.CleaningStatus,
	notes string,
	effects effectFn,
) (*dto.CleaningItemResponse, error) {
	if actor == "" {
		return nil, domain.ErrUnauthorized
	}
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	applied, err := cleaningrules.Check(item, expected, target)
	if err != nil {
		return nil, err
	}
	if applied {
		resp := toResponse(item)
		return &resp, nil
	}

	var (
		work *entity.CleaningItem
		hop  *kit.Hop
	)
	err = uc.txRunner.Run(ctx, func(repos ports.Repos) error {
		now := uc.now()
		c := *item
		work = &c
		hop = nil
		work.Status = target
		work.UpdatedAt = now
		if notes != "" {
			work.Notes = notes
		}
		meta := map[string]any{"item_id": work.ID, "producto": work.ProductID}
		if effects != nil {
			if err := effects(ctx, repos, work, meta); err != nil {
				return err
			}
		}
		if err := repos.Cleaning.UpdateState(ctx, work, expected); err != nil {
			return err
		}
		if err := appendEvent(ctx, repos, work, actor, expected, target, now, meta); err != nil {
			return err
		}
		if !target.Terminal() {
			return nil
		}
		hop, err = kit.CloseIfCleaned(ctx, repos, work.KitID, actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("item_id", work.ID).
		Str("kit_id", work.KitID).
		Str("from", string(expected)).
		Str("to", string(target)).
		Msg("ítem de limpieza actualizado")
	if uc.observer != nil {
		uc.observer.CleaningTransition(string(expected), string(target))
	}
	resp := toResponse(work)
	resp.Applied = true
	if hop != nil {
		resp.KitStatus = string(hop.To)
		if uc.kitObserver != nil {
			uc.kitObserver.KitTransition(string(hop.From), string(hop.To))
		}
		uc.log.Info().Str("kit_id", work.KitID).Msg("kit finalizado al cerrar su último ítem de limpieza")
	}
	if uc.committed != nil {
		uc.committed.Kick()
	}
	return &resp, nil
}

func toResponse(it *entity.CleaningItem) dto.CleaningItemResponse {
	return dto.CleaningItemResponse{
		ID:               it.ID,
		KitID:            it.KitID,
		KitProductLineID: it.KitProductLineID,
		ProductID:        it.ProductID,
		LocationID:       it.LocationID,
		ToRecover:        it.ToRecover,
		Approved:         it.Approved,
		Status:           string(it.Status),
		Disposable:       it.Disposable,
		ApprovedBy:       it.ApprovedBy,
		Notes:            it.Notes,
		CreatedAt:        it.CreatedAt,
		UpdatedAt:        it.UpdatedAt,
	}
}
