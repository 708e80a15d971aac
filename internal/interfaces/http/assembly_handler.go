package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/assembly"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
)

// AssemblyHandler maneja BOMs y órdenes de ensamble.
type AssemblyHandler struct {
	uc *assembly.UseCase
}

// NewAssemblyHandler construye el handler de ensamble.
func NewAssemblyHandler(uc *assembly.UseCase) *AssemblyHandler {
	return &AssemblyHandler{uc: uc}
}

// CreateBOM godoc
// @Summary      Crear versión de BOM
// @Description  Crea la versión nueva y desactiva la anterior en una transacción
// @Tags         assembly
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBOMRequest  true  "receta"
// @Success      201   {object}  dto.BOMResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/boms [post]
func (h *AssemblyHandler) CreateBOM(c *fiber.Ctx) error {
	var in dto.CreateBOMRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.FinishedSkuID == "" || len(in.Lines) == 0 {
		return badRequest(c, "finished_sku_id y lines son requeridos")
	}
	landed, err := parseDecimal("landed_cost", orDefault(in.LandedCost, "0"))
	if err != nil {
		return respondError(c, err)
	}
	lines := make([]assembly.BOMLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty, err := parseDecimal("quantity", l.Quantity)
		if err != nil {
			return respondError(c, err)
		}
		lines = append(lines, assembly.BOMLineInput{ComponentSkuID: l.ComponentSkuID, Quantity: qty, Unit: l.Unit})
	}
	bom, err := h.uc.CreateBOM(c.Context(), GetTenantID(c), GetUserID(c), in.FinishedSkuID, lines, landed, in.LandedCostDescription)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBOMResponse(bom))
}

// GetBOM godoc
// @Summary      Obtener BOM
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la BOM"
// @Success      200  {object}  dto.BOMResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id} [get]
func (h *AssemblyHandler) GetBOM(c *fiber.Ctx) error {
	bom, err := h.uc.GetBOM(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toBOMResponse(bom))
}

// ListBOMVersions godoc
// @Summary      Listar versiones de BOM de un SKU terminado
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        sku_id  query  string  true  "SKU terminado"
// @Success      200  {array}  dto.BOMResponse
// @Router       /api/boms [get]
func (h *AssemblyHandler) ListBOMVersions(c *fiber.Ctx) error {
	skuID := c.Query("sku_id")
	if skuID == "" {
		return badRequest(c, "sku_id es requerido")
	}
	boms, err := h.uc.ListBOMVersions(c.Context(), GetTenantID(c), skuID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BOMResponse, 0, len(boms))
	for _, b := range boms {
		out = append(out, toBOMResponse(b))
	}
	return c.JSON(out)
}

// CheckAvailability godoc
// @Summary      Verificar disponibilidad de componentes
// @Description  Lectura pura: explota la BOM y compara contra los saldos; no mueve stock
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id            path   string  true  "ID de la BOM"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Param        planned_qty   query  string  true  "Cantidad planificada"
// @Success      200  {object}  dto.AvailabilityResponse
// @Router       /api/boms/{id}/availability [get]
func (h *AssemblyHandler) CheckAvailability(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		return badRequest(c, "warehouse_id es requerido")
	}
	planned, err := parseDecimal("planned_qty", c.Query("planned_qty"))
	if err != nil {
		return respondError(c, err)
	}
	report, err := h.uc.CheckAvailability(c.Context(), GetTenantID(c), c.Params("id"), warehouseID, planned)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.AvailabilityResponse{CanAssemble: report.IsAvailable}
	for sku, s := range report.Shortages {
		out.Shortages = append(out.Shortages, dto.ShortageResponse{
			SkuID:     sku,
			Required:  s.Required.String(),
			Available: s.Available.String(),
			Shortage:  s.Shortage.String(),
		})
	}
	return c.JSON(out)
}

// Start godoc
// @Summary      Iniciar orden de ensamble
// @Description  Consume los componentes con ASSEMBLE_OUT en una transacción; si algo falta no queda nada
// @Tags         assembly
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartAssemblyRequest  true  "orden"
// @Success      201   {object}  dto.AssemblyOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assembly-orders [post]
func (h *AssemblyHandler) Start(c *fiber.Ctx) error {
	var in dto.StartAssemblyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.BOMID == "" || in.WarehouseID == "" {
		return badRequest(c, "bom_id y warehouse_id son requeridos")
	}
	planned, err := parseDecimal("planned_qty", in.PlannedQty)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.uc.Start(c.Context(), GetTenantID(c), GetUserID(c), in.BOMID, in.WarehouseID, planned)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAssemblyOrderResponse(order))
}

// Complete godoc
// @Summary      Completar orden de ensamble
// @Description  Postea ASSEMBLE_IN del producido con COGS; la merma queda registrada en la orden
// @Tags         assembly
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la orden"
// @Param        body  body  dto.CompleteAssemblyRequest  true  "producido y merma"
// @Success      200   {object}  dto.AssemblyOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/assembly-orders/{id}/complete [post]
func (h *AssemblyHandler) Complete(c *fiber.Ctx) error {
	var in dto.CompleteAssemblyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	produced, err := parseDecimal("produced_qty", in.ProducedQty)
	if err != nil {
		return respondError(c, err)
	}
	waste, err := parseDecimal("waste_qty", orDefault(in.WasteQty, "0"))
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.uc.Complete(c.Context(), GetTenantID(c), c.Params("id"), GetUserID(c), produced, waste, in.WasteReason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAssemblyOrderResponse(order))
}

// Cancel godoc
// @Summary      Cancelar orden de ensamble
// @Description  No revierte los componentes ya consumidos; quedan como merma del proceso
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AssemblyOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/assembly-orders/{id}/cancel [post]
func (h *AssemblyHandler) Cancel(c *fiber.Ctx) error {
	order, err := h.uc.Cancel(c.Context(), GetTenantID(c), c.Params("id"), GetUserID(c), c.Query("reason"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAssemblyOrderResponse(order))
}

// GetOrder godoc
// @Summary      Obtener orden de ensamble
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AssemblyOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/assembly-orders/{id} [get]
func (h *AssemblyHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.uc.GetOrder(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAssemblyOrderResponse(order))
}

// ListOrders godoc
// @Summary      Listar órdenes de ensamble
// @Tags         assembly
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Estado"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.AssemblyOrderResponse
// @Router       /api/assembly-orders [get]
func (h *AssemblyHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.uc.List(c.Context(), GetTenantID(c), c.Query("status"),
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.AssemblyOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toAssemblyOrderResponse(o))
	}
	return c.JSON(out)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
