package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kitquirurgico-api/internal/application/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
)

// CleaningHandler cola de limpieza y esterilización.
type CleaningHandler struct {
	uc *cleaning.UseCase
}

// NewCleaningHandler construye el handler.
func NewCleaningHandler(uc *cleaning.UseCase) *CleaningHandler {
	return &CleaningHandler{uc: uc}
}

// List godoc
// @Summary      Listar ítems de limpieza
// @Tags         cleaning
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pendiente, en_proceso, esterilizado, aprobado, desechado"
// @Param        kit_id  query  string  false  "Kit"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.CleaningListResponse
// @Router       /api/cleaning-items [get]
func (h *CleaningHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), entity.CleaningStatus(c.Query("status")), c.Query("kit_id"), pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ítem de limpieza
// @Tags         cleaning
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.CleaningItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cleaning-items/{id} [get]
func (h *CleaningHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Start godoc
// @Summary      Iniciar limpieza (pendiente → en_proceso)
// @Tags         cleaning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del ítem"
// @Param        body  body  dto.CleaningTransitionRequest  true  "Estado esperado"
// @Success      200   {object}  dto.CleaningItemResponse
// @Router       /api/cleaning-items/{id}/iniciar [post]
func (h *CleaningHandler) Start(c *fiber.Ctx) error {
	var in dto.CleaningTransitionRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Start(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Sterilize godoc
// @Summary      Esterilizar (en_proceso → esterilizado)
// @Tags         cleaning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del ítem"
// @Param        body  body  dto.CleaningTransitionRequest  true  "Estado esperado"
// @Success      200   {object}  dto.CleaningItemResponse
// @Router       /api/cleaning-items/{id}/esterilizar [post]
func (h *CleaningHandler) Sterilize(c *fiber.Ctx) error {
	var in dto.CleaningTransitionRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Sterilize(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar ítem (esterilizado → aprobado)
// @Description  Acredita al inventario la cantidad aprobada y cierra el kit si era el último ítem.
// @Tags         cleaning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del ítem"
// @Param        body  body  dto.ApproveCleaningRequest  true  "Cantidad aprobada"
// @Success      200   {object}  dto.CleaningItemResponse
// @Router       /api/cleaning-items/{id}/aprobar [post]
func (h *CleaningHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveCleaningRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Approve(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Discard godoc
// @Summary      Desechar ítem
// @Tags         cleaning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del ítem"
// @Param        body  body  dto.DiscardCleaningRequest  true  "Motivo"
// @Success      200   {object}  dto.CleaningItemResponse
// @Router       /api/cleaning-items/{id}/desechar [post]
func (h *CleaningHandler) Discard(c *fiber.Ctx) error {
	var in dto.DiscardCleaningRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Discard(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
