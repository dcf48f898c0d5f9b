package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kitquirurgico-api/internal/application/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/application/inventory"
	"github.com/jhoicas/kitquirurgico-api/internal/application/kit"
	"github.com/jhoicas/kitquirurgico-api/internal/application/traceability"
	"github.com/jhoicas/kitquirurgico-api/internal/application/usecase"
	"github.com/jhoicas/kitquirurgico-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	KitUC          *kit.UseCase
	CleaningUC     *cleaning.UseCase
	InventoryUC    *inventory.UseCase
	ProductUC      *usecase.ProductUseCase
	LocationUC     *usecase.LocationUseCase
	TraceabilityUC *traceability.UseCase
	JWTSecret      string
}

// Router registra las rutas de la API. admin pasa todos los RequireRole.
func Router(app *fiber.App, deps RouterDeps) {
	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	logistica := RequireRole(jwt.RoleLogistica)
	transporte := RequireRole(jwt.RoleLogistica, jwt.RoleMensajero)
	recepcion := RequireRole(jwt.RoleMensajero, jwt.RoleTecnico)
	quirofano := RequireRole(jwt.RoleTecnico, jwt.RoleLogistica)
	limpieza := RequireRole(jwt.RoleLimpieza)

	// Kits
	kits := api.Group("/kits")
	kitHandler := NewKitHandler(deps.KitUC)
	traceHandler := NewTraceabilityHandler(deps.TraceabilityUC)
	kits.Post("/", logistica, kitHandler.Create)
	kits.Get("/", kitHandler.List)
	kits.Get("/qr/:token", kitHandler.GetByQR)
	kits.Post("/qr/:token/entregar", recepcion, kitHandler.DeliverByQR)
	kits.Get("/:id", kitHandler.GetByID)
	kits.Get("/:id/timeline", traceHandler.KitTimeline)
	kits.Post("/:id/aprobar", logistica, kitHandler.Approve)
	kits.Post("/:id/listo-envio", logistica, kitHandler.MarkReady)
	kits.Post("/:id/despachar", transporte, kitHandler.Dispatch)
	kits.Post("/:id/entregar", recepcion, kitHandler.Deliver)
	kits.Post("/:id/uso", RequireRole(jwt.RoleTecnico), kitHandler.RecordUsage)
	kits.Post("/:id/devolver", quirofano, kitHandler.Return)
	kits.Post("/:id/finalizar", RequireRole(jwt.RoleLogistica, jwt.RoleLimpieza), kitHandler.Finalize)
	kits.Post("/:id/cancelar", logistica, kitHandler.Cancel)

	// Casos quirúrgicos
	api.Get("/cases/:id/timeline", traceHandler.CaseTimeline)

	// Limpieza
	items := api.Group("/cleaning-items")
	cleaningHandler := NewCleaningHandler(deps.CleaningUC)
	items.Get("/", cleaningHandler.List)
	items.Get("/:id", cleaningHandler.GetByID)
	items.Post("/:id/iniciar", limpieza, cleaningHandler.Start)
	items.Post("/:id/esterilizar", limpieza, cleaningHandler.Sterilize)
	items.Post("/:id/aprobar", limpieza, cleaningHandler.Approve)
	items.Post("/:id/desechar", limpieza, cleaningHandler.Discard)

	// Inventario
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC)
	inv.Get("/stock", inventoryHandler.Stock)
	inv.Get("/movements", inventoryHandler.Movements)
	inv.Get("/low-stock", inventoryHandler.LowStock)
	inv.Get("/balance", inventoryHandler.Balance)
	inv.Post("/movements", logistica, inventoryHandler.RegisterMovement)
	inv.Post("/entries", logistica, inventoryHandler.RegisterEntry)
	inv.Post("/adjustments", logistica, inventoryHandler.Adjust)
	inv.Post("/transfers", logistica, inventoryHandler.Transfer)
	inv.Post("/minimums", logistica, inventoryHandler.SetMinimum)

	// Catálogo
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", logistica, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", logistica, locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)
}
