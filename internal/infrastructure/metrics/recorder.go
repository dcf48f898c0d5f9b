// Package metrics exporta contadores Prometheus del ciclo de vida de kits, del sub-flujo de
// limpieza, de la bandeja de salida y de la API HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
)

const namespace = "kitquirurgico"

var (
	_ ports.TransitionObserver = (*Recorder)(nil)
	_ ports.CleaningObserver   = (*Recorder)(nil)
	_ ports.DeliveryObserver   = (*Recorder)(nil)
)

// Recorder registro propio (no el global) con las métricas de la aplicación.
// Seguro para uso concurrente.
type Recorder struct {
	registry *prometheus.Registry

	kitTransitions      *prometheus.CounterVec
	cleaningTransitions *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewRecorder crea y registra las métricas.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		kitTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kit_transitions_total",
			Help:      "Transiciones de estado de kits confirmadas.",
		}, []string{"from", "to"}),
		cleaningTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleaning_transitions_total",
			Help:      "Cambios de estado de ítems de limpieza confirmados.",
		}, []string{"from", "to"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Intentos de entrega de notificaciones por tipo y resultado (enviado, reintento, fallido).",
		}, []string{"type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de las peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	r.registry.MustRegister(
		r.kitTransitions,
		r.cleaningTransitions,
		r.notifications,
		r.httpRequests,
		r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// KitTransition implementa ports.TransitionObserver.
func (r *Recorder) KitTransition(from, to string) {
	r.kitTransitions.WithLabelValues(from, to).Inc()
}

// CleaningTransition implementa ports.CleaningObserver.
func (r *Recorder) CleaningTransition(from, to string) {
	r.cleaningTransitions.WithLabelValues(from, to).Inc()
}

// NotificationDelivered implementa ports.DeliveryObserver.
func (r *Recorder) NotificationDelivered(kind string) {
	r.notifications.WithLabelValues(kind, "enviado").Inc()
}

// NotificationFailed implementa ports.DeliveryObserver.
func (r *Recorder) NotificationFailed(kind string, dead bool) {
	result := "reintento"
	if dead {
		result = "fallido"
	}
	r.notifications.WithLabelValues(kind, result).Inc()
}

// Middleware mide cada petición con la ruta registrada (no la URL cruda) para acotar cardinalidad.
func (r *Recorder) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		r.httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone el registro en formato Prometheus.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry acceso al registro (pruebas).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
