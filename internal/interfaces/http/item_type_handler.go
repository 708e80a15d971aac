package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/catalog"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
)

// ItemTypeHandler maneja los tipos de artículo y su esquema de atributos.
type ItemTypeHandler struct {
	uc *catalog.ItemTypeUseCase
}

// NewItemTypeHandler construye el handler de tipos de artículo.
func NewItemTypeHandler(uc *catalog.ItemTypeUseCase) *ItemTypeHandler {
	return &ItemTypeHandler{uc: uc}
}

// Create godoc
// @Summary      Crear tipo de artículo
// @Tags         item-types
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemTypeRequest  true  "tipo"
// @Success      201   {object}  dto.ItemTypeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/item-types [post]
func (h *ItemTypeHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	it, err := h.uc.Create(GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(it)
}

// GetByID godoc
// @Summary      Obtener tipo de artículo
// @Tags         item-types
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del tipo"
// @Success      200  {object}  dto.ItemTypeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/item-types/{id} [get]
func (h *ItemTypeHandler) GetByID(c *fiber.Ctx) error {
	it, err := h.uc.GetByID(GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if it == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "tipo de artículo no encontrado"})
	}
	return c.JSON(it)
}

// List godoc
// @Summary      Listar tipos de artículo
// @Tags         item-types
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ItemTypeResponse
// @Router       /api/item-types [get]
func (h *ItemTypeHandler) List(c *fiber.Ctx) error {
	items, err := h.uc.List(GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}
