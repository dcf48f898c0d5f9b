// Package kit registro de kits quirúrgicos: solicitud, transiciones del ciclo de vida
// y conciliación al devolver. Cada transición es una unidad de trabajo: estado, libro de
// inventario, trazabilidad y bandeja de notificaciones se confirman juntos o no se confirma nada.
package kit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/application/inventory"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	kitrules "github.com/jhoicas/kitquirurgico-api/internal/domain/kit"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
	"github.com/jhoicas/kitquirurgico-api/pkg/logger"
	"github.com/jhoicas/kitquirurgico-api/pkg/qrtoken"
)

// UseCase casos de uso del registro de kits.
type UseCase struct {
	txRunner     ports.TxRunner
	ledger       *inventory.Ledger
	kitRepo      repository.KitRepository
	lineRepo     repository.KitLineRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	committed    ports.Committed
	observer     ports.TransitionObserver
	log          *logger.Logger
	newToken     func() string
	now          func() time.Time
}

// Deps dependencias del caso de uso. Committed, Observer y Log son opcionales.
type Deps struct {
	TxRunner     ports.TxRunner
	Ledger       *inventory.Ledger
	KitRepo      repository.KitRepository
	LineRepo     repository.KitLineRepository
	ProductRepo  repository.ProductRepository
	LocationRepo repository.LocationRepository
	Committed    ports.Committed
	Observer     ports.TransitionObserver
	Log          *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:     d.TxRunner,
		ledger:       d.Ledger,
		kitRepo:      d.KitRepo,
		lineRepo:     d.LineRepo,
		productRepo:  d.ProductRepo,
		locationRepo: d.LocationRepo,
		committed:    d.Committed,
		observer:     d.Observer,
		log:          log.Component("kit"),
		newToken:     qrtoken.New,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create registra un kit en estado solicitado con sus líneas. No toca inventario.
func (uc *UseCase) Create(ctx context.Context, actor string, in dto.CreateKitRequest) (*dto.KitResponse, error) {
	if actor == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.CaseID == "" || in.CaseNumber == "" || in.SourceLocationID == "" {
		return nil, domain.Invalid("case_id, case_number y source_location_id son obligatorios")
	}
	if len(in.Lines) == 0 {
		return nil, domain.Invalid("el kit requiere al menos una línea")
	}
	loc, err := uc.locationRepo.GetByID(ctx, in.SourceLocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("ubicación %s: %w", in.SourceLocationID, domain.ErrNotFound)
	}

	products := make(map[string]*entity.Product, len(in.Lines))
	for _, l := range in.Lines {
		if l.ProductID == "" || !l.Quantity.IsPositive() {
			return nil, domain.Invalid("cada línea requiere producto y cantidad positiva")
		}
		if _, dup := products[l.ProductID]; dup {
			return nil, domain.Invalid("producto %s repetido en el kit", l.ProductID)
		}
		p, err := uc.productRepo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("producto %s: %w", l.ProductID, domain.ErrNotFound)
		}
		products[l.ProductID] = p
	}

	now := uc.now()
	k := &entity.Kit{
		ID:               uuid.New().String(),
		Code:             newKitCode(now),
		CaseID:           in.CaseID,
		CaseNumber:       in.CaseNumber,
		Status:           entity.KitSolicitado,
		SourceLocationID: in.SourceLocationID,
		LocationID:       in.SourceLocationID,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	k.Stamp(entity.KitSolicitado, actor, now)

	lines := make([]*entity.KitProductLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, &entity.KitProductLine{
			ID:         uuid.New().String(),
			KitID:      k.ID,
			ProductID:  l.ProductID,
			Requested:  l.Quantity,
			Disposable: products[l.ProductID].Disposable,
			Lot:        l.Lot,
			ExpiresAt:  l.ExpiresAt,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	var t *txn
	err = uc.txRunner.Run(ctx, func(repos ports.Repos) error {
		if err := repos.Kits.Create(ctx, k); err != nil {
			return err
		}
		for _, line := range lines {
			if err := repos.KitLines.Create(ctx, line); err != nil {
				return err
			}
		}
		t = &txn{ctx: ctx, repos: repos, kit: k, lines: lines, actor: actor, now: now}
		if err := t.record("", entity.KitSolicitado, map[string]any{"lineas": len(lines)}); err != nil {
			return err
		}
		return appendEvent(ctx, repos, entity.TraceEntityCase, k.CaseID, "kit_asignado", "", "", actor, now,
			map[string]any{"kit_id": k.ID, "kit_code": k.Code})
	})
	if err != nil {
		return nil, err
	}
	uc.afterCommit(k, t.hops)
	resp := toKitResponse(k, lines)
	resp.Applied = true
	return resp, nil
}

// Get obtiene un kit con sus líneas.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.KitResponse, error) {
	k, err := uc.kitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, domain.ErrNotFound
	}
	return uc.view(ctx, k)
}

// GetByQRToken busca un kit por el token de su QR.
func (uc *UseCase) GetByQRToken(ctx context.Context, token string) (*dto.KitResponse, error) {
	k, err := uc.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, k)
}

func (uc *UseCase) byToken(ctx context.Context, token string) (*entity.Kit, error) {
	if !qrtoken.Valid(token) {
		return nil, domain.Invalid("token QR con formato inválido")
	}
	k, err := uc.kitRepo.GetByQRToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, domain.ErrNotFound
	}
	return k, nil
}

// List lista kits por estado y/o caso. Los estados de espera son datos en reposo:
// cada actor consulta aquí los kits que le corresponden.
func (uc *UseCase) List(ctx context.Context, filter repository.KitFilter) (*dto.KitListResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Invalid("estado %q", filter.Status)
	}
	list, err := uc.kitRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.KitResponse, 0, len(list))
	for _, k := range list {
		items = append(items, *toKitResponse(k, nil))
	}
	return &dto.KitListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

func (uc *UseCase) view(ctx context.Context, k *entity.Kit) (*dto.KitResponse, error) {
	lines, err := uc.lineRepo.ListByKit(ctx, k.ID)
	if err != nil {
		return nil, err
	}
	return toKitResponse(k, lines), nil
}

// run motor común de las transiciones: valida el estado esperado contra una lectura previa,
// trata la repetición como no-op y ejecuta body en una transacción. body debe reclamar el
// kit con txn.advance antes de cualquier otro efecto.
func (uc *UseCase) run(
	ctx context.Context,
	kitID, actor string,
	expected, target entity.KitStatus,
	body func(t *txn) error,
) (*dto.KitResponse, error) {
	if actor == "" {
		return nil, domain.ErrUnauthorized
	}
	k, err := uc.kitRepo.GetByID(ctx, kitID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, domain.ErrNotFound
	}
	applied, err := kitrules.Check(k, expected, target)
	if err != nil {
		return nil, err
	}
	if applied {
		return uc.view(ctx, k)
	}

	var t *txn
	err = uc.txRunner.Run(ctx, func(repos ports.Repos) error {
		lines, err := repos.KitLines.ListByKit(ctx, k.ID)
		if err != nil {
			return err
		}
		t = &txn{ctx: ctx, repos: repos, ledger: uc.ledger, kit: cloneKit(k), lines: lines, actor: actor, now: uc.now()}
		return body(t)
	})
	if err != nil {
		return nil, err
	}
	uc.afterCommit(t.kit, t.hops)
	resp := toKitResponse(t.kit, t.lines)
	resp.Warnings = t.warnings
	resp.Applied = true
	return resp, nil
}

func (uc *UseCase) afterCommit(k *entity.Kit, hops []Hop) {
	if uc.committed != nil {
		uc.committed.Kick()
	}
	for _, h := range hops {
		uc.log.Info().
			Str("kit_id", k.ID).
			Str("case_number", k.CaseNumber).
			Str("from", string(h.From)).
			Str("to", string(h.To)).
			Msg("transición de kit aplicada")
		if uc.observer != nil {
			uc.observer.KitTransition(string(h.From), string(h.To))
		}
	}
}

func cloneKit(k *entity.Kit) *entity.Kit {
	c := *k
	c.Phases = make(map[entity.KitStatus]entity.PhaseStamp, len(k.Phases))
	for s, p := range k.Phases {
		c.Phases[s] = p
	}
	return &c
}

func newKitCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("KIT-%s-%s", now.Format("20060102"), suffix)
}
