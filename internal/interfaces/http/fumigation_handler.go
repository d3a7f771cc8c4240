package http

import (
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/fumigation"
	"github.com/jhoicas/agro-inventario/internal/application/report"
)

const (
	formDataField  = "datos"
	formImageField = "imagen"
	maxImageBytes  = 10 << 20
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// FumigationHandler órdenes de aplicación, imagen adjunta y PDF.
type FumigationHandler struct {
	uc      *fumigation.UseCase
	reports *report.UseCase
}

// NewFumigationHandler construye el handler.
func NewFumigationHandler(uc *fumigation.UseCase, reports *report.UseCase) *FumigationHandler {
	return &FumigationHandler{uc: uc, reports: reports}
}

// List godoc
// @Summary      Listar fumigaciones
// @Tags         fumigaciones
// @Security     Bearer
// @Produce      json
// @Param        estado  query  string  false  "Estado"
// @Param        campo   query  string  false  "ID del campo"
// @Param        cultivo query  string  false  "Cultivo"
// @Param        desde   query  string  false  "Fecha inicial"
// @Param        hasta   query  string  false  "Fecha final"
// @Success      200  {array}  dto.FumigationResponse
// @Router       /api/fumigaciones [get]
func (h *FumigationHandler) List(c *fiber.Ctx) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c, "desde", "hasta")
	if err != nil {
		return err
	}
	out, err := h.uc.List(c.UserContext(), fumigation.ListQuery{
		Status:  c.Query("estado"),
		FieldID: c.Query("campo"),
		Crop:    c.Query("cultivo"),
		From:    from,
		To:      to,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener fumigación
// @Tags         fumigaciones
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.FumigationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/fumigaciones/{id} [get]
func (h *FumigationHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Crear orden de aplicación
// @Description  Acepta JSON o multipart con el campo "datos" (JSON) y el archivo opcional "imagen".
// @Tags         fumigaciones
// @Security     Bearer
// @Accept       json,mpfd
// @Produce      json
// @Param        body  body  dto.CreateFumigationRequest  true  "Orden"
// @Success      201   {object}  dto.FumigationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/fumigaciones [post]
func (h *FumigationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateFumigationRequest
	img, err := parseFumigationBody(c, &in)
	if err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in, img)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar orden de aplicación
// @Tags         fumigaciones
// @Security     Bearer
// @Accept       json,mpfd
// @Produce      json
// @Param        id    path  string                       true  "ID"
// @Param        body  body  dto.UpdateFumigationRequest  true  "Cambios"
// @Success      200   {object}  dto.FumigationResponse
// @Router       /api/fumigaciones/{id} [put]
func (h *FumigationHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateFumigationRequest
	img, err := parseFumigationBody(c, &in)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), id, in, img)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la orden
// @Description  Pasar a completed descuenta los productos del stock.
// @Tags         fumigaciones
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                             true  "ID"
// @Param        body  body  dto.UpdateFumigationStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.FumigationResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/fumigaciones/{id}/estado [patch]
func (h *FumigationHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateFumigationStatusRequest
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

// Delete godoc
// @Summary      Eliminar orden
// @Tags         fumigaciones
// @Security     Bearer
// @Param        id  path  string  true  "ID"
// @Success      204
// @Router       /api/fumigaciones/{id} [delete]
func (h *FumigationHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AttachImage godoc
// @Summary      Subir o reemplazar imagen
// @Tags         fumigaciones
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        id      path      string  true  "ID"
// @Param        imagen  formData  file    true  "PNG o JPEG"
// @Success      200  {object}  dto.FumigationResponse
// @Router       /api/fumigaciones/{id}/imagen [put]
func (h *FumigationHandler) AttachImage(c *fiber.Ctx) error {
	fh, err := c.FormFile(formImageField)
	if err != nil {
		return badRequest("MISSING_FILE", "el archivo "+formImageField+" es requerido")
	}
	img, err := readImage(fh)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.AttachImage(c.UserContext(), id, *img)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ImageURL godoc
// @Summary      URL de la imagen
// @Tags         fumigaciones
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.ImageURLResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/fumigaciones/{id}/imagen [get]
func (h *FumigationHandler) ImageURL(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	url, err := h.uc.ImageURL(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.ImageURLResponse{URL: url})
}

// PDF godoc
// @Summary      Descargar PDF de la orden
// @Tags         fumigaciones
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID"
// @Success      200  {file}  binary
// @Router       /api/fumigaciones/{id}/pdf [get]
func (h *FumigationHandler) PDF(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	data, filename, err := h.reports.FumigationPDF(c.UserContext(), id)
	if err != nil {
		return err
	}
	return sendFile(c, data, filename, report.ContentTypePDF)
}

// ExportPDF godoc
// @Summary      Exportar PDF al almacenamiento
// @Tags         fumigaciones
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.ExportResponse
// @Router       /api/fumigaciones/{id}/pdf/exportar [post]
func (h *FumigationHandler) ExportPDF(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := h.reports.ExportFumigationPDF(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// parseFumigationBody lee el cuerpo JSON o multipart. La imagen es opcional.
func parseFumigationBody(c *fiber.Ctx, out any) (*fumigation.Image, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return nil, parseBody(c, out)
	}
	raw := c.FormValue(formDataField)
	if raw == "" {
		return nil, badRequest("INVALID_BODY", "el campo "+formDataField+" es requerido")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return nil, badRequest("INVALID_BODY", "el campo "+formDataField+" no es JSON válido")
	}
	if err := validateStruct(out); err != nil {
		return nil, err
	}
	fh, err := c.FormFile(formImageField)
	if err != nil {
		return nil, nil
	}
	return readImage(fh)
}

func readImage(fh *multipart.FileHeader) (*fumigation.Image, error) {
	if fh.Size > maxImageBytes {
		return nil, &apiError{status: fiber.StatusRequestEntityTooLarge, code: "FILE_TOO_LARGE", message: "la imagen supera 10 MB"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	contentType := nethttp.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return nil, badRequest("INVALID_FILE", "solo se aceptan imágenes PNG o JPEG")
	}
	return &fumigation.Image{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}
