package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

// UseCase movimientos manuales de inventario (entrada, salida, ajuste, transferencia) y consultas.
// Toda escritura pasa por el Ledger dentro de una transacción.
type UseCase struct {
	txRunner     ports.TxRunner
	ledger       *Ledger
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	stockRepo    repository.InventoryRecordRepository
	movementRepo repository.InventoryMovementRepository
	committed    ports.Committed
}

// NewUseCase construye el caso de uso. committed puede ser nil.
func NewUseCase(
	txRunner ports.TxRunner,
	ledger *Ledger,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.InventoryRecordRepository,
	movementRepo repository.InventoryMovementRepository,
	committed ports.Committed,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		ledger:       ledger,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		committed:    committed,
	}
}

// RegisterMovement valida el request y aplica el movimiento en una transacción.
// Para transferencia se escriben dos movimientos (salida en origen, entrada en destino).
func (uc *UseCase) RegisterMovement(ctx context.Context, actor string, in dto.RegisterMovementRequest) ([]dto.MovementResponse, error) {
	if actor == "" {
		return nil, domain.ErrUnauthorized
	}
	kind := entity.MovementType(in.Type)
	switch kind {
	case entity.MovementEntrada, entity.MovementSalida:
		if in.LocationID == "" || !in.Quantity.IsPositive() {
			return nil, domain.Invalid("location_id y quantity positiva son obligatorios")
		}
	case entity.MovementAjuste:
		if in.LocationID == "" || in.Quantity.IsZero() {
			return nil, domain.Invalid("location_id y quantity distinta de cero son obligatorios")
		}
	case entity.MovementTransferencia:
		if in.FromLocationID == "" || in.ToLocationID == "" || in.FromLocationID == in.ToLocationID {
			return nil, domain.Invalid("origen y destino deben ser distintos")
		}
		if !in.Quantity.IsPositive() {
			return nil, domain.Invalid("quantity debe ser positiva")
		}
	default:
		return nil, domain.Invalid("tipo %q", in.Type)
	}

	if err := uc.requireProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}
	locations := []string{in.LocationID}
	if kind == entity.MovementTransferencia {
		locations = []string{in.FromLocationID, in.ToLocationID}
	}
	for _, id := range locations {
		if err := uc.requireLocation(ctx, id); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	ref := entity.MovementRef{Type: entity.RefManual}
	var out []*entity.InventoryMovement
	err := uc.txRunner.Run(ctx, func(repos ports.Repos) error {
		out = out[:0]
		base := MovementInput{
			ProductID: in.ProductID, Type: kind, Ref: ref,
			Reason: in.Reason, Actor: actor, At: now,
		}
		switch kind {
		case entity.MovementEntrada:
			base.LocationID, base.Quantity = in.LocationID, in.Quantity
			return uc.apply(ctx, repos, uc.ledger.Credit, base, &out)
		case entity.MovementSalida:
			base.LocationID, base.Quantity = in.LocationID, in.Quantity
			return uc.apply(ctx, repos, uc.ledger.Debit, base, &out)
		case entity.MovementAjuste:
			base.LocationID, base.Quantity = in.LocationID, in.Quantity.Abs()
			if in.Quantity.IsPositive() {
				return uc.apply(ctx, repos, uc.ledger.Credit, base, &out)
			}
			return uc.apply(ctx, repos, uc.ledger.Debit, base, &out)
		default:
			origin := base
			origin.LocationID, origin.Quantity = in.FromLocationID, in.Quantity
			if err := uc.apply(ctx, repos, uc.ledger.Debit, origin, &out); err != nil {
				return err
			}
			dest := base
			dest.LocationID, dest.Quantity = in.ToLocationID, in.Quantity
			return uc.apply(ctx, repos, uc.ledger.Credit, dest, &out)
		}
	})
	if err != nil {
		return nil, err
	}
	uc.kick()

	resp := make([]dto.MovementResponse, 0, len(out))
	for _, m := range out {
		resp = append(resp, ToMovementResponse(m))
	}
	return resp, nil
}

func (uc *UseCase) apply(
	ctx context.Context,
	repos ports.Repos,
	op func(context.Context, ports.Repos, MovementInput) (*entity.InventoryMovement, error),
	in MovementInput,
	out *[]*entity.InventoryMovement,
) error {
	mov, err := op(ctx, repos, in)
	if err != nil {
		return err
	}
	*out = append(*out, mov)
	return nil
}

// SetMinimum fija el stock mínimo que dispara la alerta de stock bajo.
func (uc *UseCase) SetMinimum(ctx context.Context, in dto.SetMinimumRequest) (*dto.StockResponse, error) {
	if in.Minimum.IsNegative() {
		return nil, domain.Invalid("el mínimo no puede ser negativo")
	}
	if err := uc.requireProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}
	if err := uc.requireLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}
	if err := uc.stockRepo.SetMinimum(ctx, in.ProductID, in.LocationID, in.Minimum); err != nil {
		return nil, err
	}
	return uc.GetStock(ctx, in.ProductID, in.LocationID)
}

// GetStock stock de un producto en una ubicación (cero si no hay registro).
func (uc *UseCase) GetStock(ctx context.Context, productID, locationID string) (*dto.StockResponse, error) {
	if productID == "" || locationID == "" {
		return nil, domain.Invalid("product_id y location_id son obligatorios")
	}
	rec, err := uc.stockRepo.Get(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &entity.InventoryRecord{
			ProductID: productID, LocationID: locationID,
			Quantity: decimal.Zero, MinStock: decimal.Zero, Status: entity.StockAgotado,
		}
	}
	resp := toStockResponse(rec)
	return &resp, nil
}

// ListStock lista registros de inventario.
func (uc *UseCase) ListStock(ctx context.Context, filter repository.StockFilter) ([]dto.StockResponse, error) {
	list, err := uc.stockRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toStockResponse(r))
	}
	return out, nil
}

// ListMovements lista movimientos del libro.
func (uc *UseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]dto.MovementResponse, error) {
	list, err := uc.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out, nil
}

// ListLowStock devuelve los registros en o bajo su mínimo, priorizados por déficit.
// locationID vacío considera todas las ubicaciones.
func (uc *UseCase) ListLowStock(ctx context.Context, locationID string) ([]dto.LowStockDTO, error) {
	recs, err := uc.stockRepo.ListAtOrBelowMinimum(ctx, locationID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, dto.LowStockDTO{
			ProductID:  r.ProductID,
			LocationID: r.LocationID,
			Quantity:   r.Quantity,
			Minimum:    r.MinStock,
			Deficit:    r.MinStock.Sub(r.Quantity),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deficit.GreaterThan(out[j].Deficit)
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

// CheckBalance contrasta el stock materializado con la suma de movimientos del par.
func (uc *UseCase) CheckBalance(ctx context.Context, productID, locationID string) (*dto.BalanceCheckResponse, error) {
	stock, err := uc.GetStock(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	sum, err := uc.movementRepo.Sum(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	return &dto.BalanceCheckResponse{
		ProductID:   productID,
		LocationID:  locationID,
		Quantity:    stock.Quantity,
		MovementSum: sum,
		Balanced:    stock.Quantity.Equal(sum),
	}, nil
}

func (uc *UseCase) requireProduct(ctx context.Context, id string) error {
	p, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return nil
}

func (uc *UseCase) requireLocation(ctx context.Context, id string) error {
	l, err := uc.locationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.ErrNotFound
	}
	return nil
}

func (uc *UseCase) kick() {
	if uc.committed != nil {
		uc.committed.Kick()
	}
}

// ToMovementResponse convierte un movimiento a DTO.
func ToMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		LocationID:     m.LocationID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		ResultQuantity: m.ResultQuantity,
		RefType:        m.Reference.Type,
		RefID:          m.Reference.ID,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

func toStockResponse(r *entity.InventoryRecord) dto.StockResponse {
	return dto.StockResponse{
		ProductID:  r.ProductID,
		LocationID: r.LocationID,
		Quantity:   r.Quantity,
		Minimum:    r.MinStock,
		Status:     r.Status,
		UpdatedAt:  r.UpdatedAt,
	}
}
