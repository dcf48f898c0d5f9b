package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CleaningStatus estado de esterilización de un ítem recuperado.
type CleaningStatus string

// Estados de limpieza.
const (
	CleaningPendiente    CleaningStatus = "pendiente"
	CleaningEnProceso    CleaningStatus = "en_proceso"
	CleaningEsterilizado CleaningStatus = "esterilizado"
	CleaningAprobado     CleaningStatus = "aprobado"
	CleaningDesechado    CleaningStatus = "desechado"
)

// CleaningStatuses lista los estados de limpieza.
var CleaningStatuses = []CleaningStatus{
	CleaningPendiente, CleaningEnProceso, CleaningEsterilizado, CleaningAprobado, CleaningDesechado,
}

// Valid indica si el estado es conocido.
func (s CleaningStatus) Valid() bool {
	for _, c := range CleaningStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// Terminal aprobado o desechado.
func (s CleaningStatus) Terminal() bool {
	return s == CleaningAprobado || s == CleaningDesechado
}

// CleaningItem cantidad de una línea de kit abierta que pasa por limpieza antes de volver a inventario.
type CleaningItem struct {
	ID               string
	KitID            string
	KitProductLineID string
	ProductID        string
	LocationID       string          // ubicación donde se acredita lo aprobado
	ToRecover        decimal.Decimal // cantidad_a_recuperar
	Approved         decimal.Decimal // cantidad_aprobada
	Status           CleaningStatus
	Disposable       bool
	ApprovedBy       string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
