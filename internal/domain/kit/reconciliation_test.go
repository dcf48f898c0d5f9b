package kit_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	kitrules "github.com/jhoicas/kitquirurgico-api/internal/domain/kit"
)

func line(id string, sent, used int64, disposable bool) *entity.KitProductLine {
	return &entity.KitProductLine{
		ID: id, Requested: decimal.NewFromInt(sent), Prepared: decimal.NewFromInt(sent),
		Sent: decimal.NewFromInt(sent), Used: decimal.NewFromInt(used), Disposable: disposable,
	}
}

func TestReconcile_Decisiones(t *testing.T) {
	lines := []*entity.KitProductLine{
		line("desechable", 3, 1, true),
		line("consumida", 2, 2, false),
		line("abierta", 5, 2, false),
		line("cerrada", 4, 0, false),
	}

	plan := kitrules.Reconcile(lines, nil)
	require.Len(t, plan.Lines, 4)

	assert.Equal(t, kitrules.DecisionDiscard, plan.Lines[0].Decision)
	assert.True(t, plan.Lines[0].Quantity.IsZero())
	assert.Equal(t, kitrules.DecisionNone, plan.Lines[1].Decision)
	assert.Equal(t, kitrules.DecisionClean, plan.Lines[2].Decision)
	assert.True(t, plan.Lines[2].Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, kitrules.DecisionRestock, plan.Lines[3].Decision)
	assert.True(t, plan.Lines[3].Quantity.Equal(decimal.NewFromInt(4)))

	assert.True(t, plan.NeedsCleaning())
	assert.Equal(t, entity.KitEnLimpieza, plan.NextState())
}

func TestReconcile_AperturaExplicita(t *testing.T) {
	lines := []*entity.KitProductLine{line("a", 4, 0, false), line("b", 4, 1, false)}

	plan := kitrules.Reconcile(lines, map[string]bool{"a": true, "b": false})

	assert.Equal(t, kitrules.DecisionClean, plan.Lines[0].Decision)
	assert.Equal(t, kitrules.DecisionRestock, plan.Lines[1].Decision)
}

func TestReconcile_SinLimpiezaFinaliza(t *testing.T) {
	plan := kitrules.Reconcile([]*entity.KitProductLine{line("a", 2, 0, false), line("b", 1, 1, true)}, nil)

	assert.False(t, plan.NeedsCleaning())
	assert.Equal(t, entity.KitFinalizado, plan.NextState())
}
