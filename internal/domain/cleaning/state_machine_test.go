package cleaning_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

func TestCanTransition_Limpieza(t *testing.T) {
	assert.True(t, cleaning.CanTransition(entity.CleaningPendiente, entity.CleaningEnProceso))
	assert.True(t, cleaning.CanTransition(entity.CleaningPendiente, entity.CleaningDesechado))
	assert.False(t, cleaning.CanTransition(entity.CleaningPendiente, entity.CleaningAprobado))
	assert.False(t, cleaning.CanTransition(entity.CleaningAprobado, entity.CleaningDesechado))
}

func TestApprovedQuantity(t *testing.T) {
	item := &entity.CleaningItem{ToRecover: decimal.NewFromInt(4)}

	q, err := cleaning.ApprovedQuantity(item, nil)
	require.NoError(t, err)
	assert.True(t, q.Equal(decimal.NewFromInt(4)))

	two := decimal.NewFromInt(2)
	q, err = cleaning.ApprovedQuantity(item, &two)
	require.NoError(t, err)
	assert.True(t, q.Equal(two))

	five := decimal.NewFromInt(5)
	_, err = cleaning.ApprovedQuantity(item, &five)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAllTerminal(t *testing.T) {
	items := []*entity.CleaningItem{{Status: entity.CleaningAprobado}, {Status: entity.CleaningDesechado}}
	assert.True(t, cleaning.AllTerminal(items))

	items = append(items, &entity.CleaningItem{Status: entity.CleaningEsterilizado})
	assert.False(t, cleaning.AllTerminal(items))
}
