package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

type cleaningRepo struct {
	s    *Store
	inTx bool
}

func (r *cleaningRepo) Create(_ context.Context, it *entity.CleaningItem) error {
	return r.s.write(r.inTx, func(d *state) error {
		if _, ok := d.cleaning[it.ID]; ok {
			return domain.ErrDuplicate
		}
		d.cleaning[it.ID] = cloneItem(it)
		return nil
	})
}

func (r *cleaningRepo) GetByID(_ context.Context, id string) (*entity.CleaningItem, error) {
	var out *entity.CleaningItem
	r.s.read(r.inTx, func(d *state) {
		if it, ok := d.cleaning[id]; ok {
			out = cloneItem(it)
		}
	})
	return out, nil
}

func (r *cleaningRepo) ListByKit(_ context.Context, kitID string) ([]*entity.CleaningItem, error) {
	return r.filter(func(it *entity.CleaningItem) bool { return it.KitID == kitID }), nil
}

func (r *cleaningRepo) ListByStatus(_ context.Context, status entity.CleaningStatus, limit, offset int) ([]*entity.CleaningItem, error) {
	all := r.filter(func(it *entity.CleaningItem) bool { return it.Status == status })
	return page(all, limit, offset), nil
}

func (r *cleaningRepo) filter(keep func(*entity.CleaningItem) bool) []*entity.CleaningItem {
	var out []*entity.CleaningItem
	r.s.read(r.inTx, func(d *state) {
		for _, it := range d.cleaning {
			if keep(it) {
				out = append(out, cloneItem(it))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *cleaningRepo) UpdateState(_ context.Context, it *entity.CleaningItem, expected entity.CleaningStatus) error {
	return r.s.write(r.inTx, func(d *state) error {
		cur, ok := d.cleaning[it.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != expected {
			return fmt.Errorf("%w: ítem %s está en %s", domain.ErrStaleState, it.ID, cur.Status)
		}
		d.cleaning[it.ID] = cloneItem(it)
		return nil
	})
}
