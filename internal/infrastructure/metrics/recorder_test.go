package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/metrics"
)

func TestRecorder_Contadores(t *testing.T) {
	r := metrics.NewRecorder()

	r.KitTransition("solicitado", "preparando")
	r.KitTransition("solicitado", "preparando")
	r.CleaningTransition("pendiente", "en_proceso")
	r.NotificationDelivered("stock_bajo")
	r.NotificationFailed("cambio_estado_kit", false)
	r.NotificationFailed("cambio_estado_kit", true)

	expected := `
# HELP kitquirurgico_kit_transitions_total Transiciones de estado de kits confirmadas.
# TYPE kitquirurgico_kit_transitions_total counter
kitquirurgico_kit_transitions_total{from="solicitado",to="preparando"} 2
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "kitquirurgico_kit_transitions_total"))

	n, err := testutil.GatherAndCount(r.Registry(), "kitquirurgico_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecorder_MiddlewareYHandler(t *testing.T) {
	r := metrics.NewRecorder()
	app := fiber.New()
	app.Use(r.Middleware())
	app.Get("/kits/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(r.Handler()))

	resp, err := app.Test(httptest.NewRequest("GET", "/kits/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `kitquirurgico_http_requests_total{method="GET",route="/kits/:id",status="200"} 1`)
}
