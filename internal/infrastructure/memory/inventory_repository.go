package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

type stockRepo struct {
	s    *Store
	inTx bool
}

func (r *stockRepo) Get(_ context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	var out *entity.InventoryRecord
	r.s.read(r.inTx, func(d *state) {
		if rec, ok := d.stock[stockKey{productID, locationID}]; ok {
			out = cloneRecord(rec)
		}
	})
	return out, nil
}

func (r *stockRepo) Decrement(_ context.Context, productID, locationID string, qty decimal.Decimal) (*repository.StockChange, error) {
	var change *repository.StockChange
	err := r.s.write(r.inTx, func(d *state) error {
		rec, ok := d.stock[stockKey{productID, locationID}]
		available := decimal.Zero
		if ok {
			available = rec.Quantity
		}
		if !ok || available.LessThan(qty) {
			return &domain.InsufficientStockError{
				ProductID: productID, LocationID: locationID, Requested: qty, Available: available,
			}
		}
		change = &repository.StockChange{Previous: rec.Quantity, Minimum: rec.MinStock}
		rec.Quantity = rec.Quantity.Sub(qty)
		rec.Status = entity.StatusFor(rec.Quantity)
		rec.UpdatedAt = time.Now().UTC()
		change.Current = rec.Quantity
		return nil
	})
	return change, err
}

func (r *stockRepo) Increment(_ context.Context, productID, locationID string, qty decimal.Decimal) (*repository.StockChange, error) {
	var change *repository.StockChange
	err := r.s.write(r.inTx, func(d *state) error {
		key := stockKey{productID, locationID}
		rec, ok := d.stock[key]
		if !ok {
			rec = &entity.InventoryRecord{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero, MinStock: decimal.Zero}
			d.stock[key] = rec
		}
		change = &repository.StockChange{Previous: rec.Quantity, Minimum: rec.MinStock}
		rec.Quantity = rec.Quantity.Add(qty)
		rec.Status = entity.StatusFor(rec.Quantity)
		rec.UpdatedAt = time.Now().UTC()
		change.Current = rec.Quantity
		return nil
	})
	return change, err
}

func (r *stockRepo) SetMinimum(_ context.Context, productID, locationID string, minimum decimal.Decimal) error {
	return r.s.write(r.inTx, func(d *state) error {
		key := stockKey{productID, locationID}
		rec, ok := d.stock[key]
		if !ok {
			rec = &entity.InventoryRecord{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero, Status: entity.StockAgotado}
			d.stock[key] = rec
		}
		rec.MinStock = minimum
		rec.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *stockRepo) List(_ context.Context, f repository.StockFilter) ([]*entity.InventoryRecord, error) {
	var all []*entity.InventoryRecord
	r.s.read(r.inTx, func(d *state) {
		for _, rec := range d.stock {
			if f.ProductID != "" && rec.ProductID != f.ProductID {
				continue
			}
			if f.LocationID != "" && rec.LocationID != f.LocationID {
				continue
			}
			all = append(all, cloneRecord(rec))
		}
	})
	sortRecords(all)
	return page(all, f.Limit, f.Offset), nil
}

func (r *stockRepo) ListAtOrBelowMinimum(_ context.Context, locationID string) ([]*entity.InventoryRecord, error) {
	var out []*entity.InventoryRecord
	r.s.read(r.inTx, func(d *state) {
		for _, rec := range d.stock {
			if locationID != "" && rec.LocationID != locationID {
				continue
			}
			if rec.MinStock.IsPositive() && rec.Quantity.LessThanOrEqual(rec.MinStock) {
				out = append(out, cloneRecord(rec))
			}
		}
	})
	sortRecords(out)
	return out, nil
}

func sortRecords(recs []*entity.InventoryRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].ProductID == recs[j].ProductID {
			return recs[i].LocationID < recs[j].LocationID
		}
		return recs[i].ProductID < recs[j].ProductID
	})
}

type movementRepo struct {
	s    *Store
	inTx bool
}

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	return r.s.write(r.inTx, func(d *state) error {
		d.movements = append(d.movements, cloneMovement(m))
		return nil
	})
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	r.s.read(r.inTx, func(d *state) {
		for _, m := range d.movements {
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.LocationID != "" && m.LocationID != f.LocationID {
				continue
			}
			if f.RefType != "" && m.Reference.Type != f.RefType {
				continue
			}
			if f.RefID != "" && m.Reference.ID != f.RefID {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && m.CreatedAt.After(*f.To) {
				continue
			}
			out = append(out, cloneMovement(m))
		}
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *movementRepo) Sum(_ context.Context, productID, locationID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.s.read(r.inTx, func(d *state) {
		for _, m := range d.movements {
			if m.ProductID == productID && m.LocationID == locationID {
				sum = sum.Add(m.Quantity)
			}
		}
	})
	return sum, nil
}
