// Package memory backend en memoria de todos los repositorios. Sirve para desarrollo local
// (STORAGE_BACKEND=memory) y para las pruebas de los casos de uso. Las transacciones se
// serializan con un candado del store y se revierten restaurando una instantánea.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

type stockKey struct {
	product  string
	location string
}

type state struct {
	products  map[string]*entity.Product
	locations map[string]*entity.Location
	kits      map[string]*entity.Kit
	lines     map[string]*entity.KitProductLine
	stock     map[stockKey]*entity.InventoryRecord
	movements []*entity.InventoryMovement
	cleaning  map[string]*entity.CleaningItem
	events    []*entity.TraceabilityEvent
	seq       int64
	outbox    []*entity.OutboxNotification
}

func newState() *state {
	return &state{
		products:  map[string]*entity.Product{},
		locations: map[string]*entity.Location{},
		kits:      map[string]*entity.Kit{},
		lines:     map[string]*entity.KitProductLine{},
		stock:     map[stockKey]*entity.InventoryRecord{},
		cleaning:  map[string]*entity.CleaningItem{},
	}
}

// snapshot copia profunda de lo mutable. Movimientos y eventos son inmutables: basta copiar el slice.
func (s *state) snapshot() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range s.locations {
		c.locations[k] = cloneLocation(v)
	}
	for k, v := range s.kits {
		c.kits[k] = cloneKit(v)
	}
	for k, v := range s.lines {
		c.lines[k] = cloneLine(v)
	}
	for k, v := range s.stock {
		c.stock[k] = cloneRecord(v)
	}
	for k, v := range s.cleaning {
		c.cleaning[k] = cloneItem(v)
	}
	c.movements = append([]*entity.InventoryMovement(nil), s.movements...)
	c.events = append([]*entity.TraceabilityEvent(nil), s.events...)
	c.seq = s.seq
	c.outbox = make([]*entity.OutboxNotification, 0, len(s.outbox))
	for _, n := range s.outbox {
		c.outbox = append(c.outbox, cloneNotification(n))
	}
	return c
}

// Store contenedor de datos en memoria.
type Store struct {
	txMu sync.Mutex   // serializa unidades de trabajo y accesos fuera de transacción
	mu   sync.RWMutex // protege data en cada llamada
	data *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Repos repositorios que operan fuera de transacción (cada escritura es atómica por sí sola).
func (s *Store) Repos() ports.Repos {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) ports.Repos {
	return ports.Repos{
		Products:  &productRepo{s: s, inTx: inTx},
		Locations: &locationRepo{s: s, inTx: inTx},
		Kits:      &kitRepo{s: s, inTx: inTx},
		KitLines:  &lineRepo{s: s, inTx: inTx},
		Stock:     &stockRepo{s: s, inTx: inTx},
		Movements: &movementRepo{s: s, inTx: inTx},
		Cleaning:  &cleaningRepo{s: s, inTx: inTx},
		Trace:     &traceRepo{s: s, inTx: inTx},
		Outbox:    &outboxRepo{s: s, inTx: inTx},
	}
}

// Run implementa ports.TxRunner. Si fn falla, el store vuelve a la instantánea previa.
func (s *Store) Run(ctx context.Context, fn func(repos ports.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	saved := s.data.snapshot()
	s.mu.RUnlock()

	if err := fn(s.repos(true)); err != nil {
		s.mu.Lock()
		s.data = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// read ejecuta f con lectura compartida. Fuera de transacción espera a que termine la unidad
// de trabajo en curso: solo se observa estado confirmado.
func (s *Store) read(inTx bool, f func(d *state)) {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f(s.data)
}

// write ejecuta f con escritura exclusiva. Fuera de transacción también toma txMu para no
// intercalarse con una unidad de trabajo que podría revertirse.
func (s *Store) write(inTx bool, f func(d *state) error) error {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.data)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	if offset < 0 {
		offset = 0
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
