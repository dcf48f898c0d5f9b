package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kitquirurgico-api/internal/application/dto"
	"github.com/jhoicas/kitquirurgico-api/internal/application/kit"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

// KitHandler ciclo de vida de los kits quirúrgicos.
type KitHandler struct {
	uc *kit.UseCase
}

// NewKitHandler construye el handler.
func NewKitHandler(uc *kit.UseCase) *KitHandler {
	return &KitHandler{uc: uc}
}

// Create godoc
// @Summary      Solicitar kit
// @Description  Crea un kit en estado solicitado para un caso quirúrgico. No reserva stock.
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateKitRequest  true  "Caso y productos"
// @Success      201   {object}  dto.KitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/kits [post]
func (h *KitHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateKitRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener kit
// @Tags         kits
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del kit"
// @Success      200  {object}  dto.KitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kits/{id} [get]
func (h *KitHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByQR godoc
// @Summary      Buscar kit por token QR
// @Tags         kits
// @Security     Bearer
// @Produce      json
// @Param        token  path  string  true  "Token del QR"
// @Success      200    {object}  dto.KitResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/kits/qr/{token} [get]
func (h *KitHandler) GetByQR(c *fiber.Ctx) error {
	out, err := h.uc.GetByQRToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar kits
// @Tags         kits
// @Security     Bearer
// @Produce      json
// @Param        status   query  string  false  "Estado (solicitado, preparando, ...)"
// @Param        case_id  query  string  false  "Caso quirúrgico"
// @Param        limit    query  int     false  "Límite"  default(20)
// @Param        offset   query  int     false  "Offset"  default(0)
// @Success      200      {object}  dto.KitListResponse
// @Router       /api/kits [get]
func (h *KitHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	out, err := h.uc.List(c.UserContext(), repository.KitFilter{
		Status: entity.KitStatus(c.Query("status")),
		CaseID: c.Query("case_id"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar solicitud (solicitado → preparando)
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del kit"
// @Param        body  body  dto.ApproveKitRequest  true  "Estado esperado"
// @Success      200   {object}  dto.KitResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/kits/{id}/aprobar [post]
func (h *KitHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveKitRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.Approve(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

// MarkReady godoc
// @Summary      Marcar listo para envío (preparando → listo_envio)
// @Description  Fija lo preparado por línea y reserva stock en la bodega de origen. Sin stock completo
// @Description  reserva lo disponible con advertencia, salvo require_full_stock.
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del kit"
// @Param        body  body  dto.MarkReadyRequest  true  "Cantidades preparadas"
// @Success      200   {object}  dto.KitResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/kits/{id}/listo-envio [post]
func (h *KitHandler) MarkReady(c *fiber.Ctx) error {
	var in dto.MarkReadyRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.MarkReady(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

// Dispatch godoc
// @Summary      Despachar (listo_envio → en_transito)
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del kit"
// @Param        body  body  dto.DispatchRequest  true  "Mensajero"
// @Success      200   {object}  dto.KitResponse
// @Router       /api/kits/{id}/despachar [post]
func (h *KitHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.DispatchRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.Dispatch(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

// Deliver godoc
// @Summary      Entregar en quirófano (en_transito → entregado)
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del kit"
// @Param        body  body  dto.DeliverRequest  true  "Cantidades recibidas"
// @Success      200   {object}  dto.KitResponse
// @Router       /api/kits/{id}/entregar [post]
func (h *KitHandler) Deliver(c *fiber.Ctx) error {
	var in dto.DeliverRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.Deliver(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

// DeliverByQR godoc
// @Summary      Entregar escaneando el QR
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        token  path  string              true  "Token del QR"
// @Param        body   body  dto.DeliverRequest  true  "Cantidades recibidas"
// @Success      200    {object}  dto.KitResponse
// @Router       /api/kits/qr/{token}/entregar [post]
func (h *KitHandler) DeliverByQR(c *fiber.Ctx) error {
	var in dto.DeliverRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.DeliverByQR(c.UserContext(), GetUserID(c), c.Params("token"), in))
}

// RecordUsage godoc
// @Summary      Registrar uso (entregado → en_uso)
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ID del kit"
// @Param        body  body  dto.UsageRequest  true  "Cantidades utilizadas"
// @Success      200   {object}  dto.KitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/kits/{id}/uso [post]
func (h *KitHandler) RecordUsage(c *fiber.Ctx) error {
	var in dto.UsageRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.RecordUsage(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

// Return godoc
// @Summary      Devolver kit
// @Description  Concilia lo enviado contra lo utilizado y avanza a en_limpieza o finalizado.
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del kit"
// @Param        body  body  dto.ReturnRequest  true  "Estado de empaques"
// @Success      200   {object}  dto.KitResponse
// @Router       /api/kits/{id}/devolver [post]
func (h *KitHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.Return(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

// Finalize godoc
// @Summary      Finalizar kit (en_limpieza → finalizado)
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del kit"
// @Param        body  body  dto.FinalizeRequest  true  "Estado esperado"
// @Success      200   {object}  dto.KitResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/kits/{id}/finalizar [post]
func (h *KitHandler) Finalize(c *fiber.Ctx) error {
	var in dto.FinalizeRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.Finalize(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

// Cancel godoc
// @Summary      Cancelar kit
// @Tags         kits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del kit"
// @Param        body  body  dto.CancelRequest  true  "Motivo"
// @Success      200   {object}  dto.KitResponse
// @Router       /api/kits/{id}/cancelar [post]
func (h *KitHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	return h.reply(c)(h.uc.Cancel(c.UserContext(), GetUserID(c), c.Params("id"), in))
}

func (h *KitHandler) reply(c *fiber.Ctx) func(*dto.KitResponse, error) error {
	return func(out *dto.KitResponse, err error) error {
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}
