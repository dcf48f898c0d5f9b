package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

type kitRepo struct {
	s    *Store
	inTx bool
}

func (r *kitRepo) Create(_ context.Context, k *entity.Kit) error {
	return r.s.write(r.inTx, func(d *state) error {
		if _, ok := d.kits[k.ID]; ok {
			return domain.ErrDuplicate
		}
		d.kits[k.ID] = cloneKit(k)
		return nil
	})
}

func (r *kitRepo) GetByID(_ context.Context, id string) (*entity.Kit, error) {
	var out *entity.Kit
	r.s.read(r.inTx, func(d *state) {
		if k, ok := d.kits[id]; ok {
			out = cloneKit(k)
		}
	})
	return out, nil
}

func (r *kitRepo) GetByQRToken(_ context.Context, token string) (*entity.Kit, error) {
	var out *entity.Kit
	r.s.read(r.inTx, func(d *state) {
		for _, k := range d.kits {
			if token != "" && k.QRToken == token {
				out = cloneKit(k)
				return
			}
		}
	})
	return out, nil
}

func (r *kitRepo) List(_ context.Context, f repository.KitFilter) ([]*entity.Kit, error) {
	var all []*entity.Kit
	r.s.read(r.inTx, func(d *state) {
		for _, k := range d.kits {
			if f.Status != "" && k.Status != f.Status {
				continue
			}
			if f.CaseID != "" && k.CaseID != f.CaseID {
				continue
			}
			all = append(all, cloneKit(k))
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, f.Limit, f.Offset), nil
}

func (r *kitRepo) UpdateState(_ context.Context, k *entity.Kit, expected entity.KitStatus) error {
	return r.s.write(r.inTx, func(d *state) error {
		cur, ok := d.kits[k.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != expected {
			return fmt.Errorf("%w: kit %s está en %s", domain.ErrStaleState, k.ID, cur.Status)
		}
		d.kits[k.ID] = cloneKit(k)
		return nil
	})
}

// LockByID equivale a GetByID: dentro de Run el store ya está serializado.
func (r *kitRepo) LockByID(ctx context.Context, id string) (*entity.Kit, error) {
	return r.GetByID(ctx, id)
}

type lineRepo struct {
	s    *Store
	inTx bool
}

func (r *lineRepo) Create(_ context.Context, l *entity.KitProductLine) error {
	return r.s.write(r.inTx, func(d *state) error {
		if _, ok := d.lines[l.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range d.lines {
			if other.KitID == l.KitID && other.ProductID == l.ProductID {
				return domain.ErrDuplicate
			}
		}
		d.lines[l.ID] = cloneLine(l)
		return nil
	})
}

func (r *lineRepo) ListByKit(_ context.Context, kitID string) ([]*entity.KitProductLine, error) {
	var out []*entity.KitProductLine
	r.s.read(r.inTx, func(d *state) {
		for _, l := range d.lines {
			if l.KitID == kitID {
				out = append(out, cloneLine(l))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *lineRepo) Update(_ context.Context, l *entity.KitProductLine) error {
	return r.s.write(r.inTx, func(d *state) error {
		if _, ok := d.lines[l.ID]; !ok {
			return domain.ErrNotFound
		}
		d.lines[l.ID] = cloneLine(l)
		return nil
	})
}
