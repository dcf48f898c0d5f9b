package kit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	kitrules "github.com/jhoicas/kitquirurgico-api/internal/domain/kit"
)

func TestCanTransition_Aristas(t *testing.T) {
	cases := []struct {
		from, to entity.KitStatus
		ok       bool
	}{
		{entity.KitSolicitado, entity.KitPreparando, true},
		{entity.KitSolicitado, entity.KitListoEnvio, false},
		{entity.KitEntregado, entity.KitDevuelto, true},
		{entity.KitEnUso, entity.KitEntregado, false},
		{entity.KitDevuelto, entity.KitFinalizado, true},
		{entity.KitEnLimpieza, entity.KitCancelado, true},
		{entity.KitFinalizado, entity.KitCancelado, false},
		{entity.KitCancelado, entity.KitSolicitado, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, kitrules.CanTransition(c.from, c.to), "%s → %s", c.from, c.to)
	}
}

func TestNextStates_TerminalesSinSalida(t *testing.T) {
	assert.Empty(t, kitrules.NextStates(entity.KitFinalizado))
	assert.Empty(t, kitrules.NextStates(entity.KitCancelado))
	assert.ElementsMatch(t,
		[]entity.KitStatus{entity.KitEnUso, entity.KitDevuelto, entity.KitCancelado},
		kitrules.NextStates(entity.KitEntregado))
}

func TestCheck(t *testing.T) {
	k := &entity.Kit{ID: "k", Status: entity.KitPreparando}
	k.Stamp(entity.KitSolicitado, "a", time.Now())
	k.Stamp(entity.KitPreparando, "a", time.Now())

	applied, err := kitrules.Check(k, entity.KitSolicitado, entity.KitPreparando)
	require.NoError(t, err)
	assert.True(t, applied, "repetir una transición ya aplicada es un no-op")

	_, err = kitrules.Check(k, entity.KitListoEnvio, entity.KitEnTransito)
	assert.ErrorIs(t, err, domain.ErrStaleState)

	_, err = kitrules.Check(k, entity.KitPreparando, entity.KitEntregado)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = kitrules.Check(k, "perdido", entity.KitEntregado)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	applied, err = kitrules.Check(k, entity.KitPreparando, entity.KitListoEnvio)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestAlreadyApplied_KitCancelado(t *testing.T) {
	k := &entity.Kit{Status: entity.KitCancelado}
	k.Stamp(entity.KitPreparando, "a", time.Now())

	assert.True(t, kitrules.AlreadyApplied(k, entity.KitCancelado))
	assert.False(t, kitrules.AlreadyApplied(k, entity.KitPreparando))
}

func TestLocationAfter(t *testing.T) {
	k := &entity.Kit{SourceLocationID: "bodega", LocationID: "bodega"}

	assert.Equal(t, entity.LocationTransito, kitrules.LocationAfter(k, entity.KitEnTransito, ""))
	assert.Equal(t, "quirofano-3", kitrules.LocationAfter(k, entity.KitEntregado, "quirofano-3"))
	assert.Equal(t, "bodega", kitrules.LocationAfter(k, entity.KitDevuelto, ""))
	assert.Equal(t, "bodega", kitrules.LocationAfter(k, entity.KitEnUso, ""))
}
