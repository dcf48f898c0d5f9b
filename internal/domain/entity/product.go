package entity

import "time"

// Product representa un producto del catálogo quirúrgico.
// Disposable es la fuente autoritativa del flag desechable: se copia a cada línea de kit al solicitarla.
type Product struct {
	ID         string
	SKU        string // código único
	Name       string
	Disposable bool // de un solo uso, nunca regresa a inventario
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
