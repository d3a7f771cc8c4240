package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
)

// FieldHandler campos y sus lotes.
type FieldHandler struct {
	uc *usecase.FieldUseCase
}

// NewFieldHandler construye el handler.
func NewFieldHandler(uc *usecase.FieldUseCase) *FieldHandler {
	return &FieldHandler{uc: uc}
}

// List godoc
// @Summary      Listar campos
// @Tags         campos
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.FieldResponse
// @Router       /api/campos [get]
func (h *FieldHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener campo
// @Tags         campos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.FieldResponse
// @Router       /api/campos/{id} [get]
func (h *FieldHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Crear campo
// @Description  boundary es un polígono GeoJSON; si no se envía area se calcula a partir de él.
// @Tags         campos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.FieldRequest  true  "Campo"
// @Success      201   {object}  dto.FieldResponse
// @Router       /api/campos [post]
func (h *FieldHandler) Create(c *fiber.Ctx) error {
	var in dto.FieldRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar campo
// @Tags         campos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ID"
// @Param        body  body  dto.FieldRequest  true  "Campo"
// @Success      200   {object}  dto.FieldResponse
// @Router       /api/campos/{id} [put]
func (h *FieldHandler) Update(c *fiber.Ctx) error {
	var in dto.FieldRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar campo
// @Tags         campos
// @Security     Bearer
// @Param        id  path  string  true  "ID"
// @Success      204
// @Router       /api/campos/{id} [delete]
func (h *FieldHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddLot godoc
// @Summary      Agregar lote
// @Tags         campos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string          true  "ID del campo"
// @Param        body  body  dto.LotRequest  true  "Lote"
// @Success      201   {object}  dto.LotResponse
// @Router       /api/campos/{id}/lotes [post]
func (h *FieldHandler) AddLot(c *fiber.Ctx) error {
	var in dto.LotRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.AddLot(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateLot godoc
// @Summary      Actualizar lote
// @Tags         campos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  string                true  "ID del campo"
// @Param        lotId  path  string                true  "ID del lote"
// @Param        body   body  dto.UpdateLotRequest  true  "Cambios"
// @Success      200    {object}  dto.LotResponse
// @Router       /api/campos/{id}/lotes/{lotId} [put]
func (h *FieldHandler) UpdateLot(c *fiber.Ctx) error {
	var in dto.UpdateLotRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.UpdateLot(c.UserContext(), id, c.Params("lotId"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// RemoveLot godoc
// @Summary      Eliminar lote
// @Tags         campos
// @Security     Bearer
// @Param        id     path  string  true  "ID del campo"
// @Param        lotId  path  string  true  "ID del lote"
// @Success      204
// @Router       /api/campos/{id}/lotes/{lotId} [delete]
func (h *FieldHandler) RemoveLot(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.uc.RemoveLot(c.UserContext(), id, c.Params("lotId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
