// Package rabbitmq publica las notificaciones del despachador en un exchange topic de RabbitMQ.
// Los servicios de correo o mensajería consumen desde colas enlazadas a las rutas stock.bajo y kit.estado.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/pkg/logger"
)

// Rutas de publicación.
const (
	RoutingLowStock  = "stock.bajo"
	RoutingKitStatus = "kit.estado"
)

var _ ports.Notifier = (*Notifier)(nil)

// LowStockMessage cuerpo publicado en stock.bajo.
type LowStockMessage struct {
	Recipients  []string        `json:"recipients"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	CurrentQty  decimal.Decimal `json:"current_qty"`
	MinQty      decimal.Decimal `json:"min_qty"`
	SentAt      time.Time       `json:"sent_at"`
}

// KitStatusMessage cuerpo publicado en kit.estado.
type KitStatusMessage struct {
	Recipients []string  `json:"recipients"`
	KitID      string    `json:"kit_id"`
	CaseNumber string    `json:"case_number"`
	FromState  string    `json:"from_state"`
	ToState    string    `json:"to_state"`
	SentAt     time.Time `json:"sent_at"`
}

// Notifier implementa ports.Notifier publicando JSON persistente.
// Un canal AMQP no admite publicaciones concurrentes: mu las serializa y reabre la conexión
// si el broker la cerró.
type Notifier struct {
	url      string
	exchange string
	log      *logger.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewNotifier conecta y declara el exchange topic durable.
func NewNotifier(url, exchange string, log *logger.Logger) (*Notifier, error) {
	if log == nil {
		log = logger.Nop()
	}
	n := &Notifier{url: url, exchange: exchange, log: log.Component("rabbitmq")}
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Notifier) connect() error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(n.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq exchange %s: %w", n.exchange, err)
	}
	n.conn, n.ch = conn, ch
	return nil
}

// NotifyLowStock publica una alerta de stock bajo.
func (n *Notifier) NotifyLowStock(ctx context.Context, userIDs []string, productID, name string, currentQty, minQty decimal.Decimal) error {
	return n.publish(ctx, RoutingLowStock, LowStockMessage{
		Recipients:  userIDs,
		ProductID:   productID,
		ProductName: name,
		CurrentQty:  currentQty,
		MinQty:      minQty,
		SentAt:      time.Now().UTC(),
	})
}

// NotifyKitStatusChange publica un cambio de estado de kit.
func (n *Notifier) NotifyKitStatusChange(ctx context.Context, userIDs []string, kitID, caseNo, fromState, toState string) error {
	return n.publish(ctx, RoutingKitStatus, KitStatusMessage{
		Recipients: userIDs,
		KitID:      kitID,
		CaseNumber: caseNo,
		FromState:  fromState,
		ToState:    toState,
		SentAt:     time.Now().UTC(),
	})
}

func (n *Notifier) publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serializar mensaje %s: %w", routingKey, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == nil || n.ch.IsClosed() {
		n.log.Warn().Msg("canal cerrado, reconectando")
		n.closeLocked()
		if err := n.connect(); err != nil {
			return err
		}
	}
	err = n.ch.PublishWithContext(ctx, n.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publicar %s: %w", routingKey, err)
	}
	n.log.Debug().Str("routing_key", routingKey).Int("bytes", len(body)).Msg("notificación publicada")
	return nil
}

// Close cierra canal y conexión.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closeLocked()
}

func (n *Notifier) closeLocked() {
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}
