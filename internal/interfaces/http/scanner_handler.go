package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/application/scanner"
)

// ScannerHandler expone las operaciones de piso para lectores de código de
// barras: resolver, recibir, retirar y ajustar con una sola lectura.
type ScannerHandler struct {
	uc *scanner.UseCase
}

// NewScannerHandler construye el handler del escáner.
func NewScannerHandler(uc *scanner.UseCase) *ScannerHandler {
	return &ScannerHandler{uc: uc}
}

// Lookup godoc
// @Summary      Resolver código de barras
// @Description  Devuelve el SKU y su saldo actual en la bodega indicada
// @Tags         scanner
// @Security     Bearer
// @Produce      json
// @Param        barcode       query  string  true  "Código de barras"
// @Param        warehouse_id  query  string  true  "ID de la bodega"
// @Success      200  {object}  dto.ScanLookupResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/scan/lookup [get]
func (h *ScannerHandler) Lookup(c *fiber.Ctx) error {
	res, err := h.uc.Lookup(c.Context(), GetTenantID(c), c.Query("barcode"), c.Query("warehouse_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ScanLookupResponse{
		Sku:     toScanSKUResponse(res.Sku),
		Balance: res.Balance.String(),
	})
}

// Receive godoc
// @Summary      Recibir por escáner
// @Tags         scanner
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScanRequest  true  "lectura"
// @Success      201  {object}  dto.StockEventResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/scan/receive [post]
func (h *ScannerHandler) Receive(c *fiber.Ctx) error {
	var in dto.ScanRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	qty, err := parseDecimal("quantity", in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	ev, err := h.uc.ScanReceive(c.Context(), GetTenantID(c), in.Barcode, in.WarehouseID, qty, in.ReferenceID, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockEventResponse(ev))
}

// Pick godoc
// @Summary      Retirar por escáner
// @Tags         scanner
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScanRequest  true  "lectura"
// @Success      201  {object}  dto.StockEventResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/scan/pick [post]
func (h *ScannerHandler) Pick(c *fiber.Ctx) error {
	var in dto.ScanRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	qty, err := parseDecimal("quantity", in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	ev, err := h.uc.ScanPick(c.Context(), GetTenantID(c), in.Barcode, in.WarehouseID, qty, in.ReferenceID, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockEventResponse(ev))
}

// Adjust godoc
// @Summary      Ajustar por escáner
// @Description  El delta puede ser positivo o negativo; exige reason_code
// @Tags         scanner
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScanRequest  true  "lectura"
// @Success      201  {object}  dto.StockEventResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/scan/adjust [post]
func (h *ScannerHandler) Adjust(c *fiber.Ctx) error {
	var in dto.ScanRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	delta, err := parseDecimal("quantity", in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	ev, err := h.uc.ScanAdjust(c.Context(), GetTenantID(c), in.Barcode, in.WarehouseID, delta, in.ReasonCode, in.Notes, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockEventResponse(ev))
}
