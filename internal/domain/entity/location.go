package entity

import "time"

// Tipos de ubicación física.
const (
	LocationBodega      = "bodega"
	LocationQuirofano   = "quirofano"
	LocationEsterilizar = "central_esterilizacion"
	LocationTransito    = "transito"
)

// Location representa una ubicación donde se almacena inventario o se encuentra un kit.
type Location struct {
	ID        string
	Name      string
	Kind      string // bodega, quirofano, central_esterilizacion, transito
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidLocationKind indica si el tipo de ubicación es conocido.
func ValidLocationKind(kind string) bool {
	switch kind {
	case LocationBodega, LocationQuirofano, LocationEsterilizar, LocationTransito:
		return true
	}
	return false
}
