package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/application/fulfillment"
)

// SalesHandler maneja las órdenes de venta.
type SalesHandler struct {
	uc *fulfillment.SalesUseCase
}

// NewSalesHandler construye el handler de ventas.
func NewSalesHandler(uc *fulfillment.SalesUseCase) *SalesHandler {
	return &SalesHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesOrderRequest  true  "orden"
// @Success      201   {object}  dto.SalesOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales-orders [post]
func (h *SalesHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSalesOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	lines := make([]fulfillment.SalesLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty, err := parseDecimal("quantity", l.Quantity)
		if err != nil {
			return respondError(c, err)
		}
		price, err := parseDecimal("unit_price", orDefault(l.UnitPrice, "0"))
		if err != nil {
			return respondError(c, err)
		}
		lines = append(lines, fulfillment.SalesLineInput{SkuID: l.SkuID, Quantity: qty, UnitPrice: price})
	}
	o, err := h.uc.CreateSalesOrder(c.Context(), GetTenantID(c), GetUserID(c), in.CustomerName, in.OrderReference, in.ShippingAddress, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSalesOrderResponse(o))
}

// Allocate godoc
// @Summary      Asignar stock a la orden de venta
// @Description  Reserva stock en la bodega indicada. Si hay faltantes no muta
// @Description  nada y devuelve el reporte con allocated=false.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID de la orden"
// @Param        body  body  dto.AllocateSalesOrderRequest  true  "bodega"
// @Success      200   {object}  dto.AllocationResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/allocate [post]
func (h *SalesHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocateSalesOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	o, shortages, err := h.uc.Allocate(c.Context(), GetTenantID(c), c.Params("id"), in.WarehouseID, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.AllocationResultResponse{Allocated: len(shortages) == 0}
	if out.Allocated {
		resp := toSalesOrderResponse(o)
		out.Order = &resp
	} else {
		out.Shortages = make([]dto.ShortageResponse, 0, len(shortages))
		for _, s := range shortages {
			out.Shortages = append(out.Shortages, dto.ShortageResponse{
				SkuID:     s.SkuID,
				Required:  s.Required.String(),
				Available: s.Available.String(),
				Shortage:  s.Shortage.String(),
			})
		}
	}
	return c.JSON(out)
}

// Ship godoc
// @Summary      Despachar la orden de venta
// @Description  Convierte las reservas en salidas definitivas (RESERVE_IN + SHIP_OUT)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/ship [post]
func (h *SalesHandler) Ship(c *fiber.Ctx) error {
	o, err := h.uc.Ship(c.Context(), GetTenantID(c), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}

// Cancel godoc
// @Summary      Cancelar orden de venta
// @Description  Si estaba en PROCESSING libera las reservas con RESERVE_IN
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/cancel [post]
func (h *SalesHandler) Cancel(c *fiber.Ctx) error {
	o, err := h.uc.CancelSalesOrder(c.Context(), GetTenantID(c), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}

// GetByID godoc
// @Summary      Obtener orden de venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [get]
func (h *SalesHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.uc.GetSalesOrder(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}

// List godoc
// @Summary      Listar órdenes de venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Estado"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.SalesOrderResponse
// @Router       /api/sales-orders [get]
func (h *SalesHandler) List(c *fiber.Ctx) error {
	orders, err := h.uc.ListSalesOrders(c.Context(), GetTenantID(c), c.Query("status"), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.SalesOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toSalesOrderResponse(o))
	}
	return c.JSON(out)
}
