package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/application/transfer"
)

// TransferHandler maneja los traslados entre bodegas.
type TransferHandler struct {
	uc *transfer.UseCase
}

// NewTransferHandler construye el handler de traslados.
func NewTransferHandler(uc *transfer.UseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create godoc
// @Summary      Crear traslado
// @Description  Postea TRANSFER_OUT en origen por línea; la orden nace IN_TRANSIT
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "traslado"
// @Success      201   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.FromWarehouseID == "" || in.ToWarehouseID == "" || len(in.Lines) == 0 {
		return badRequest(c, "from_warehouse_id, to_warehouse_id y lines son requeridos")
	}
	lines := make([]transfer.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty, err := parseDecimal("quantity", l.Quantity)
		if err != nil {
			return respondError(c, err)
		}
		lines = append(lines, transfer.LineInput{SkuID: l.SkuID, QuantityRequested: qty})
	}
	order, err := h.uc.Create(c.Context(), GetTenantID(c), GetUserID(c), in.FromWarehouseID, in.ToWarehouseID, in.Notes, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(order))
}

// Receive godoc
// @Summary      Recibir traslado
// @Description  Postea TRANSFER_IN en destino; parcial o total (sin líneas = todo lo pendiente)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  true  "recepción"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	receipts := make([]transfer.ReceiptInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		qty, err := parseDecimal("quantity", l.Quantity)
		if err != nil {
			return respondError(c, err)
		}
		receipts = append(receipts, transfer.ReceiptInput{LineID: l.LineID, Quantity: qty})
	}
	order, err := h.uc.Receive(c.Context(), GetTenantID(c), c.Params("id"), GetUserID(c), receipts)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransferResponse(order))
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  Solo sin recepciones; devuelve el stock a origen con TRANSFER_IN compensatorio
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	order, err := h.uc.Cancel(c.Context(), GetTenantID(c), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransferResponse(order))
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.GetByID(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransferResponse(order))
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status        query  string  false  "Estado"
// @Param        warehouse_id  query  string  false  "Bodega origen o destino"
// @Param        limit         query  int     false  "Límite"  default(50)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	orders, err := h.uc.List(c.Context(), GetTenantID(c), c.Query("status"), c.Query("warehouse_id"),
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TransferResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toTransferResponse(o))
	}
	return c.JSON(out)
}
