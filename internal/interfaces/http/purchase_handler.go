package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/application/fulfillment"
)

// PurchaseHandler maneja las órdenes de compra.
type PurchaseHandler struct {
	uc *fulfillment.PurchaseUseCase
}

// NewPurchaseHandler construye el handler de compras.
func NewPurchaseHandler(uc *fulfillment.PurchaseUseCase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de compra
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "orden"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	lines := make([]fulfillment.PurchaseLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty, err := parseDecimal("quantity_ordered", l.QuantityOrdered)
		if err != nil {
			return respondError(c, err)
		}
		cost, err := parseDecimal("unit_cost", orDefault(l.UnitCost, "0"))
		if err != nil {
			return respondError(c, err)
		}
		lines = append(lines, fulfillment.PurchaseLineInput{SkuID: l.SkuID, QuantityOrdered: qty, UnitCost: cost})
	}
	po, err := h.uc.CreatePurchaseOrder(c.Context(), GetTenantID(c), GetUserID(c), in.SupplierName, in.WarehouseID, in.Notes, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPurchaseOrderResponse(po))
}

// MarkOrdered godoc
// @Summary      Marcar orden como enviada al proveedor
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/order [post]
func (h *PurchaseHandler) MarkOrdered(c *fiber.Ctx) error {
	po, err := h.uc.MarkOrdered(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPurchaseOrderResponse(po))
}

// Receive godoc
// @Summary      Recibir líneas de la orden de compra
// @Description  Postea RECEIVE por línea; el estado pasa a PARTIAL o RECEIVED según lo acumulado
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la orden"
// @Param        body  body  dto.ReceivePurchaseRequest  true  "recepción"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchaseHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceivePurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	receipts := make([]fulfillment.ReceiptLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty, err := parseDecimal("quantity", l.Quantity)
		if err != nil {
			return respondError(c, err)
		}
		receipts = append(receipts, fulfillment.ReceiptLineInput{LineID: l.LineID, Quantity: qty})
	}
	po, err := h.uc.Receive(c.Context(), GetTenantID(c), c.Params("id"), GetUserID(c), receipts)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPurchaseOrderResponse(po))
}

// Cancel godoc
// @Summary      Cancelar orden de compra
// @Description  Solo en DRAFT u ORDERED sin recepciones
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	po, err := h.uc.CancelPurchaseOrder(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPurchaseOrderResponse(po))
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseHandler) GetByID(c *fiber.Ctx) error {
	po, err := h.uc.GetPurchaseOrder(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPurchaseOrderResponse(po))
}

// List godoc
// @Summary      Listar órdenes de compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Estado"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PurchaseOrderListResponse
// @Router       /api/purchase-orders [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	orders, total, err := h.uc.ListPurchaseOrders(c.Context(), GetTenantID(c), c.Query("status"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.PurchaseOrderListResponse{
		Items: make([]dto.PurchaseOrderResponse, 0, len(orders)),
		Meta:  dto.PageMeta{Total: total, Page: offset/limit + 1, PageSize: limit},
	}
	for _, po := range orders {
		out.Items = append(out.Items, toPurchaseOrderResponse(po))
	}
	return c.JSON(out)
}
