package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/catalog"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
)

// SKUHandler maneja el catálogo de SKUs.
type SKUHandler struct {
	uc *catalog.SKUUseCase
}

// NewSKUHandler construye el handler de SKUs.
func NewSKUHandler(uc *catalog.SKUUseCase) *SKUHandler {
	return &SKUHandler{uc: uc}
}

// Create godoc
// @Summary      Crear SKU
// @Description  El código del SKU sirve también como código de barras del escáner
// @Tags         skus
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSKURequest  true  "SKU"
// @Success      201   {object}  dto.SKUResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/skus [post]
func (h *SKUHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSKURequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	s, err := h.uc.Create(GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s)
}

// GetByID godoc
// @Summary      Obtener SKU
// @Tags         skus
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del SKU"
// @Success      200  {object}  dto.SKUResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/skus/{id} [get]
func (h *SKUHandler) GetByID(c *fiber.Ctx) error {
	s, err := h.uc.GetByID(GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if s == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "SKU no encontrado"})
	}
	return c.JSON(s)
}

// List godoc
// @Summary      Listar SKUs
// @Tags         skus
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(50)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.SKUResponse
// @Router       /api/skus [get]
func (h *SKUHandler) List(c *fiber.Ctx) error {
	items, err := h.uc.List(GetTenantID(c), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Update godoc
// @Summary      Actualizar SKU
// @Description  Actualización parcial: los campos omitidos no cambian
// @Tags         skus
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del SKU"
// @Param        body  body  dto.UpdateSKURequest  true  "cambios"
// @Success      200   {object}  dto.SKUResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/skus/{id} [put]
func (h *SKUHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSKURequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	s, err := h.uc.Update(GetTenantID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s)
}

// Archive godoc
// @Summary      Archivar SKU
// @Description  No borra: el historial del ledger se mantiene intacto
// @Tags         skus
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del SKU"
// @Success      204  "sin contenido"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/skus/{id} [delete]
func (h *SKUHandler) Archive(c *fiber.Ctx) error {
	if err := h.uc.Archive(GetTenantID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
