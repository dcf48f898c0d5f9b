package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

type productRepo struct {
	s    *Store
	inTx bool
}

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.s.write(r.inTx, func(d *state) error {
		if _, ok := d.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range d.products {
			if other.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		d.products[p.ID] = cloneProduct(p)
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.s.read(r.inTx, func(d *state) {
		if p, ok := d.products[id]; ok {
			out = cloneProduct(p)
		}
	})
	return out, nil
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	r.s.read(r.inTx, func(d *state) {
		for _, p := range d.products {
			if p.SKU == sku {
				out = cloneProduct(p)
				return
			}
		}
	})
	return out, nil
}

func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	var all []*entity.Product
	r.s.read(r.inTx, func(d *state) {
		for _, p := range d.products {
			all = append(all, cloneProduct(p))
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), nil
}

type locationRepo struct {
	s    *Store
	inTx bool
}

func (r *locationRepo) Create(_ context.Context, l *entity.Location) error {
	return r.s.write(r.inTx, func(d *state) error {
		if _, ok := d.locations[l.ID]; ok {
			return domain.ErrDuplicate
		}
		d.locations[l.ID] = cloneLocation(l)
		return nil
	})
}

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	var out *entity.Location
	r.s.read(r.inTx, func(d *state) {
		if l, ok := d.locations[id]; ok {
			out = cloneLocation(l)
		}
	})
	return out, nil
}

func (r *locationRepo) List(_ context.Context, limit, offset int) ([]*entity.Location, error) {
	var all []*entity.Location
	r.s.read(r.inTx, func(d *state) {
		for _, l := range d.locations {
			all = append(all, cloneLocation(l))
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), nil
}
