package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/transfer"
)

// TransferHandler transferencias entre almacenes.
type TransferHandler struct {
	uc *transfer.UseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.UseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// List godoc
// @Summary      Listar transferencias
// @Tags         transferencias
// @Security     Bearer
// @Produce      json
// @Param        estado  query  string  false  "pending | completed | cancelled"
// @Param        limit   query  int     false  "Límite"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transferencias [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	out, err := h.uc.List(c.UserContext(), c.Query("estado"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener transferencia
// @Tags         transferencias
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transferencias/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear transferencia
// @Description  Con status=completed mueve el stock en el acto.
// @Tags         transferencias
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "Transferencia"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transferencias [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la transferencia
// @Tags         transferencias
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                           true  "ID"
// @Param        body  body  dto.UpdateTransferStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transferencias/{id}/estado [patch]
func (h *TransferHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateTransferStatusRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.UpdateStatus(c.UserContext(), GetUserID(c), id, in.Status)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
