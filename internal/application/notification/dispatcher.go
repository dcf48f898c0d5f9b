package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
	"github.com/jhoicas/kitquirurgico-api/pkg/logger"
)

// DispatcherConfig parámetros del despachador.
type DispatcherConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	LogisticsUsers []string
}

// DefaultDispatcherConfig valores por defecto.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    50,
		MaxAttempts:  8,
		BaseBackoff:  2 * time.Second,
		MaxBackoff:   10 * time.Minute,
	}
}

// Dispatcher entrega las notificaciones de la bandeja de salida después del commit.
// Un fallo del servicio externo solo reprograma el intento; nunca toca la mutación que
// originó la notificación.
type Dispatcher struct {
	outbox   repository.OutboxRepository
	notifier ports.Notifier
	observer ports.DeliveryObserver
	cfg      DispatcherConfig
	log      *logger.Logger
	now      func() time.Time

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher construye el despachador. observer puede ser nil.
func NewDispatcher(
	outbox repository.OutboxRepository,
	notifier ports.Notifier,
	observer ports.DeliveryObserver,
	cfg DispatcherConfig,
	log *logger.Logger,
) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		outbox:   outbox,
		notifier: notifier,
		observer: observer,
		cfg:      cfg,
		log:      log.Component("outbox"),
		now:      func() time.Time { return time.Now().UTC() },
		kick:     make(chan struct{}, 1),
	}
}

// Start lanza el ciclo de entrega en segundo plano.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(1)
	go d.loop(ctx)
	d.log.Info().
		Int("batch_size", d.cfg.BatchSize).
		Dur("poll_interval", d.cfg.PollInterval).
		Msg("despachador de notificaciones iniciado")
}

// Stop detiene el ciclo y espera al lote en curso o al vencimiento de ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.log.Info().Msg("despachador de notificaciones detenido")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kick pide un lote inmediato. No bloquea: si ya hay uno pedido, no hace nada.
func (d *Dispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.kick:
		}
		if _, err := d.ProcessBatch(ctx); err != nil {
			d.log.Error().Err(err).Msg("no se pudo leer la bandeja de salida")
		}
	}
}

// ProcessBatch entrega un lote de notificaciones vencidas y devuelve cuántas se enviaron.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	due, err := d.outbox.ClaimDue(ctx, d.now(), d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, n := range due {
		if d.deliver(ctx, n) {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *entity.OutboxNotification) bool {
	err := d.send(ctx, n)
	if err == nil {
		if markErr := d.outbox.MarkSent(ctx, n.ID, d.now()); markErr != nil {
			d.log.Error().Err(markErr).Str("notification_id", n.ID).Msg("no se pudo marcar la notificación como enviada")
		}
		if d.observer != nil {
			d.observer.NotificationDelivered(n.Type)
		}
		return true
	}

	attempts := n.Attempts + 1
	dead := attempts >= d.cfg.MaxAttempts
	next := d.now().Add(d.backoff(attempts))
	ev := d.log.Warn()
	if dead {
		ev = d.log.Error()
	}
	ev.Err(err).
		Str("notification_id", n.ID).
		Str("type", n.Type).
		Int("attempts", attempts).
		Bool("dead", dead).
		Msg("fallo al entregar notificación")
	if markErr := d.outbox.MarkFailed(ctx, n.ID, err.Error(), next, dead); markErr != nil {
		d.log.Error().Err(markErr).Str("notification_id", n.ID).Msg("no se pudo reprogramar la notificación")
	}
	if d.observer != nil {
		d.observer.NotificationFailed(n.Type, dead)
	}
	return false
}

func (d *Dispatcher) send(ctx context.Context, n *entity.OutboxNotification) error {
	switch n.Type {
	case entity.NotificationLowStock:
		var p entity.LowStockPayload
		if err := json.Unmarshal(n.Payload, &p); err != nil {
			return fmt.Errorf("payload de stock bajo: %w", err)
		}
		current, err := decimal.NewFromString(p.CurrentQty)
		if err != nil {
			return fmt.Errorf("cantidad actual: %w", err)
		}
		minimum, err := decimal.NewFromString(p.MinQty)
		if err != nil {
			return fmt.Errorf("cantidad mínima: %w", err)
		}
		return d.notifier.NotifyLowStock(ctx, d.cfg.LogisticsUsers, p.ProductID, p.ProductName, current, minimum)
	case entity.NotificationKitStatus:
		var p entity.KitStatusPayload
		if err := json.Unmarshal(n.Payload, &p); err != nil {
			return fmt.Errorf("payload de cambio de estado: %w", err)
		}
		return d.notifier.NotifyKitStatusChange(ctx, recipients(p.Actors, d.cfg.LogisticsUsers), p.KitID, p.CaseNumber, p.FromState, p.ToState)
	default:
		return fmt.Errorf("tipo de notificación desconocido %q", n.Type)
	}
}

// backoff espera exponencial acotada: base·2^(intentos−1), máximo MaxBackoff.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	wait := d.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		wait *= 2
		if wait >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return wait
}

// recipients une los actores del kit con los usuarios de logística, sin repetidos.
func recipients(groups ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range groups {
		for _, u := range g {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
