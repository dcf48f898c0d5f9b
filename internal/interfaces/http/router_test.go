package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitquirurgico-api/internal/application/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/application/inventory"
	"github.com/jhoicas/kitquirurgico-api/internal/application/kit"
	"github.com/jhoicas/kitquirurgico-api/internal/application/traceability"
	"github.com/jhoicas/kitquirurgico-api/internal/application/usecase"
	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/kitquirurgico-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/kitquirurgico-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// newAPI arma la API completa sobre el backend en memoria.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	ledger := inventory.NewLedger()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		KitUC: kit.NewUseCase(kit.Deps{
			TxRunner:     store,
			Ledger:       ledger,
			KitRepo:      repos.Kits,
			LineRepo:     repos.KitLines,
			ProductRepo:  repos.Products,
			LocationRepo: repos.Locations,
		}),
		CleaningUC: cleaning.NewUseCase(cleaning.Deps{
			TxRunner: store,
			Ledger:   ledger,
			ItemRepo: repos.Cleaning,
		}),
		InventoryUC:    inventory.NewUseCase(store, ledger, repos.Products, repos.Locations, repos.Stock, repos.Movements, nil),
		ProductUC:      usecase.NewProductUseCase(repos.Products),
		LocationUC:     usecase.NewLocationUseCase(repos.Locations),
		TraceabilityUC: traceability.NewUseCase(repos.Trace, repos.Kits),
		JWTSecret:      testJWTSecret,
	})
	return app
}

// call lanza la petición como el rol indicado y decodifica la respuesta en out (si no es nil).
func call(t *testing.T, app *fiber.App, method, path, role string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type catalog struct {
	productID  string
	locationID string
}

// seed crea una bodega y un producto reutilizable con stock inicial.
func seed(t *testing.T, app *fiber.App, stock int) catalog {
	t.Helper()
	var loc dto.LocationResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/locations", "logistica",
		fiber.Map{"name": "Bodega central", "kind": "bodega"}, &loc))
	var prod dto.ProductResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/products", "logistica",
		fiber.Map{"sku": "PIN-01", "name": "Pinza Kelly", "disposable": false}, &prod))
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/inventory/entries", "logistica",
		fiber.Map{"product_id": prod.ID, "location_id": loc.ID, "quantity": stock}, nil))
	return catalog{productID: prod.ID, locationID: loc.ID}
}

func createKit(t *testing.T, app *fiber.App, cat catalog, qty int) dto.KitResponse {
	t.Helper()
	var k dto.KitResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/kits", "logistica", fiber.Map{
		"case_id": "case-1", "case_number": "CX-001", "source_location_id": cat.locationID,
		"lines": []fiber.Map{{"product_id": cat.productID, "quantity": qty}},
	}, &k))
	return k
}

func stockOf(t *testing.T, app *fiber.App, cat catalog) string {
	t.Helper()
	var s dto.StockResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet,
		"/api/inventory/stock?product_id="+cat.productID+"&location_id="+cat.locationID, "logistica", nil, &s))
	return s.Quantity.String()
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_CicloCompletoDelKit(t *testing.T) {
	app := newAPI(t)
	cat := seed(t, app, 10)
	k := createKit(t, app, cat, 3)
	assert.Equal(t, "solicitado", k.Status)

	var out dto.KitResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/aprobar", "logistica",
		fiber.Map{"expected_state": "solicitado"}, &out))
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/listo-envio", "logistica",
		fiber.Map{"expected_state": "preparando"}, &out))
	assert.Equal(t, "7", stockOf(t, app, cat), "listo_envio reserva lo preparado")

	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/despachar", "mensajero",
		fiber.Map{"expected_state": "listo_envio"}, &out))
	require.NotEmpty(t, out.QRToken)

	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/qr/"+out.QRToken+"/entregar", "tecnico",
		fiber.Map{"expected_state": "en_transito"}, &out))
	assert.Equal(t, "entregado", out.Status)

	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/uso", "tecnico", fiber.Map{
		"expected_state": "entregado",
		"lines":          []fiber.Map{{"line_id": out.Lines[0].ID, "quantity": 1}},
	}, &out))
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/devolver", "tecnico",
		fiber.Map{"expected_state": "en_uso"}, &out))
	assert.Equal(t, "en_limpieza", out.Status, "lo abierto pasa a limpieza")

	var items dto.CleaningListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/cleaning-items?kit_id="+k.ID, "limpieza", nil, &items))
	require.Len(t, items.Items, 1)
	item := items.Items[0]
	assert.Equal(t, "2", item.ToRecover.String())

	var ci dto.CleaningItemResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/cleaning-items/"+item.ID+"/iniciar", "limpieza",
		fiber.Map{"expected_state": "pendiente"}, &ci))
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/cleaning-items/"+item.ID+"/esterilizar", "limpieza",
		fiber.Map{"expected_state": "en_proceso"}, &ci))
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/cleaning-items/"+item.ID+"/aprobar", "limpieza",
		fiber.Map{"expected_state": "esterilizado"}, &ci))
	assert.Equal(t, "finalizado", ci.KitStatus, "el último ítem aprobado cierra el kit")
	assert.Equal(t, "9", stockOf(t, app, cat))

	var timeline dto.TimelineResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/kits/"+k.ID+"/timeline", "logistica", nil, &timeline))
	assert.GreaterOrEqual(t, len(timeline.Events), 9)
	var reached bool
	for _, e := range timeline.Events {
		if e.ToState == "finalizado" {
			reached = true
		}
	}
	assert.True(t, reached, "la línea de tiempo debe registrar el cierre")

	var caseTimeline dto.TimelineResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/cases/case-1/timeline", "logistica", nil, &caseTimeline))
	assert.Greater(t, len(caseTimeline.Events), len(timeline.Events), "el caso incluye su propio evento de asignación")
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_EstadoEsperadoDesactualizado_Retorna409(t *testing.T) {
	app := newAPI(t)
	k := createKit(t, app, seed(t, app, 10), 1)

	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/despachar", "mensajero", fiber.Map{"expected_state": "listo_envio"}, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "STALE_STATE", e.Code)
}

func TestAPI_TransicionInvalida_Retorna422(t *testing.T) {
	app := newAPI(t)
	k := createKit(t, app, seed(t, app, 10), 1)

	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/finalizar", "logistica", fiber.Map{"expected_state": "solicitado"}, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_TRANSITION", e.Code)
}

func TestAPI_RepetirTransicion_EsNoOp(t *testing.T) {
	app := newAPI(t)
	k := createKit(t, app, seed(t, app, 10), 1)

	var first, second dto.KitResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/aprobar", "logistica", fiber.Map{"expected_state": "solicitado"}, &first))
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/aprobar", "logistica", fiber.Map{"expected_state": "solicitado"}, &second))
	assert.True(t, first.Applied)
	assert.False(t, second.Applied)
	assert.Equal(t, "preparando", second.Status)
}

func TestAPI_SinStockCompleto_Retorna409(t *testing.T) {
	app := newAPI(t)
	cat := seed(t, app, 2)
	k := createKit(t, app, cat, 5)
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/aprobar", "logistica", fiber.Map{"expected_state": "solicitado"}, nil))

	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/kits/"+k.ID+"/listo-envio", "logistica",
		fiber.Map{"expected_state": "preparando", "require_full_stock": true}, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.Equal(t, "2", stockOf(t, app, cat), "la reserva fallida no toca el stock")
}

func TestAPI_Validacion_Retorna400ConDetalle(t *testing.T) {
	app := newAPI(t)

	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/kits", "logistica", fiber.Map{"case_id": "case-1"}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)
	fields := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "CreateKitRequest.case_number")
	assert.Contains(t, fields, "CreateKitRequest.lines")
}

func TestAPI_KitInexistente_Retorna404(t *testing.T) {
	app := newAPI(t)
	var e dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/kits/no-existe", "logistica", nil, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestAPI_RolSinPermiso_Retorna403(t *testing.T) {
	app := newAPI(t)
	cat := seed(t, app, 10)
	status := call(t, app, http.MethodPost, "/api/kits", "tecnico", fiber.Map{
		"case_id": "case-1", "case_number": "CX-001", "source_location_id": cat.locationID,
		"lines": []fiber.Map{{"product_id": cat.productID, "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_SinToken_Retorna401(t *testing.T) {
	app := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/kits", "", nil, nil))
}

func TestAPI_Transferencia_MueveStock(t *testing.T) {
	app := newAPI(t)
	cat := seed(t, app, 10)
	var dest dto.LocationResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/locations", "logistica",
		fiber.Map{"name": "Quirófano 3", "kind": "quirofano"}, &dest))

	var movs []dto.MovementResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/inventory/transfers", "logistica", fiber.Map{
		"product_id": cat.productID, "from_location_id": cat.locationID, "to_location_id": dest.ID, "quantity": 4,
	}, &movs))
	assert.Len(t, movs, 2)
	assert.Equal(t, "6", stockOf(t, app, cat))

	var bal dto.BalanceCheckResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet,
		"/api/inventory/balance?product_id="+cat.productID+"&location_id="+cat.locationID, "logistica", nil, &bal))
	assert.True(t, bal.Balanced)
}

func TestAPI_TokenDeRolDesconocido(t *testing.T) {
	_, err := pkgjwt.Generate(testJWTSecret, testUserID, "vendedor", testIssuer, testExpMin)
	assert.Error(t, err, "solo se emiten tokens para los roles del flujo de kits")
}
