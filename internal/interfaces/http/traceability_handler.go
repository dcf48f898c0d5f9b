package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kitquirurgico-api/internal/application/traceability"
)

// TraceabilityHandler líneas de tiempo de auditoría.
type TraceabilityHandler struct {
	uc *traceability.UseCase
}

// NewTraceabilityHandler construye el handler.
func NewTraceabilityHandler(uc *traceability.UseCase) *TraceabilityHandler {
	return &TraceabilityHandler{uc: uc}
}

// KitTimeline godoc
// @Summary      Línea de tiempo de un kit
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del kit"
// @Success      200  {object}  dto.TimelineResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kits/{id}/timeline [get]
func (h *TraceabilityHandler) KitTimeline(c *fiber.Ctx) error {
	out, err := h.uc.KitTimeline(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CaseTimeline godoc
// @Summary      Línea de tiempo de un caso quirúrgico
// @Description  Une los eventos del caso con los de todos sus kits en orden cronológico.
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del caso"
// @Success      200  {object}  dto.TimelineResponse
// @Router       /api/cases/{id}/timeline [get]
func (h *TraceabilityHandler) CaseTimeline(c *fiber.Ctx) error {
	out, err := h.uc.CaseTimeline(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
