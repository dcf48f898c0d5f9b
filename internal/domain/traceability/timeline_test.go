package traceability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/traceability"
)

func ev(id string, at time.Time, seq int64) *entity.TraceabilityEvent {
	return &entity.TraceabilityEvent{ID: id, CreatedAt: at, Seq: seq}
}

func TestMerge_OrdenCronologicoEstable(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	caseEvents := []*entity.TraceabilityEvent{ev("c1", t0, 1), ev("c2", t0.Add(3*time.Minute), 5)}
	kitEvents := []*entity.TraceabilityEvent{ev("k1", t0, 2), ev("k2", t0.Add(time.Minute), 3), ev("k3", t0.Add(5*time.Minute), 6)}

	merged := traceability.Merge(caseEvents, kitEvents)

	var ids []string
	for _, e := range merged {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"c1", "k1", "k2", "c2", "k3"}, ids)
}

func TestMerge_Vacios(t *testing.T) {
	assert.Empty(t, traceability.Merge(nil, nil))
	one := []*entity.TraceabilityEvent{ev("a", time.Now(), 1)}
	assert.Len(t, traceability.Merge(nil, one), 1)
}
