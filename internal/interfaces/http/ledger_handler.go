package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// LedgerHandler endpoints del stock ledger: posteo directo de transacciones,
// conteo cíclico, nivel de stock e historial.
type LedgerHandler struct {
	engine *ledger.Engine
}

// NewLedgerHandler construye el handler del ledger.
func NewLedgerHandler(engine *ledger.Engine) *LedgerHandler {
	return &LedgerHandler{engine: engine}
}

// PostTransaction godoc
// @Summary      Postear transacción de stock
// @Description  Agrega un evento al ledger (RECEIVE, PICK, ADJUST, RETURN...) validando el saldo no negativo
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostTransactionRequest  true  "evento"
// @Success      201   {object}  dto.StockEventResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *LedgerHandler) PostTransaction(c *fiber.Ctx) error {
	var in dto.PostTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.SkuID == "" || in.WarehouseID == "" || in.EventType == "" {
		return badRequest(c, "sku_id, warehouse_id y event_type son requeridos")
	}
	delta, err := parseDecimal("quantity_delta", in.QuantityDelta)
	if err != nil {
		return respondError(c, err)
	}
	ev, err := h.engine.PostEvent(c.Context(), ledger.PostEventInput{
		TenantID:      GetTenantID(c),
		SkuID:         in.SkuID,
		WarehouseID:   in.WarehouseID,
		EventType:     in.EventType,
		QuantityDelta: delta,
		ReferenceID:   in.ReferenceID,
		ReasonCode:    in.ReasonCode,
		Notes:         in.Notes,
		CreatedBy:     GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockEventResponse(ev))
}

// CycleCount godoc
// @Summary      Registrar conteo cíclico
// @Description  Postea CYCLE_COUNT con delta = contado − saldo actual
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CycleCountRequest  true  "conteo"
// @Success      201   {object}  dto.StockEventResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transactions/cycle-count [post]
func (h *LedgerHandler) CycleCount(c *fiber.Ctx) error {
	var in dto.CycleCountRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.SkuID == "" || in.WarehouseID == "" {
		return badRequest(c, "sku_id y warehouse_id son requeridos")
	}
	counted, err := parseDecimal("counted_qty", in.CountedQty)
	if err != nil {
		return respondError(c, err)
	}
	ev, err := h.engine.PostCycleCount(c.Context(), GetTenantID(c), in.SkuID, in.WarehouseID, counted, in.Notes, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockEventResponse(ev))
}

// StockLevel godoc
// @Summary      Nivel de stock
// @Description  Saldo actual de la clave (sku, bodega), cache-aside con TTL corto
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        sku_id        query  string  true  "SKU"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {object}  dto.StockLevelResponse
// @Router       /api/stock/level [get]
func (h *LedgerHandler) StockLevel(c *fiber.Ctx) error {
	skuID := c.Query("sku_id")
	warehouseID := c.Query("warehouse_id")
	if skuID == "" || warehouseID == "" {
		return badRequest(c, "sku_id y warehouse_id son requeridos")
	}
	qty, err := h.engine.GetStockLevel(c.Context(), GetTenantID(c), skuID, warehouseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StockLevelResponse{
		SkuID:       skuID,
		WarehouseID: warehouseID,
		Quantity:    qty.String(),
	})
}

// History godoc
// @Summary      Historial del ledger
// @Description  Eventos ordenados por fecha ascendente; con sku_id y warehouse_id fijos incluye saldo acumulado por fila
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        sku_id        query  string  false  "SKU"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        event_type    query  string  false  "Tipo de evento"
// @Param        created_by    query  string  false  "Usuario"
// @Param        date_from     query  string  false  "Desde (RFC3339)"
// @Param        date_to       query  string  false  "Hasta (RFC3339)"
// @Param        page          query  int     false  "Página"   default(1)
// @Param        page_size     query  int     false  "Tamaño"   default(50)
// @Success      200  {object}  dto.HistoryResponse
// @Router       /api/stock/history [get]
func (h *LedgerHandler) History(c *fiber.Ctx) error {
	filter := repository.HistoryFilter{
		SkuID:       c.Query("sku_id"),
		WarehouseID: c.Query("warehouse_id"),
		EventType:   c.Query("event_type"),
		CreatedBy:   c.Query("created_by"),
	}
	if s := c.Query("date_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return badRequest(c, "date_from debe ser RFC3339")
		}
		filter.DateFrom = &t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return badRequest(c, "date_to debe ser RFC3339")
		}
		filter.DateTo = &t
	}
	page, err := h.engine.GetTransactionHistory(c.Context(), GetTenantID(c), ledger.HistoryQuery{
		Filter:   filter,
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 50),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := dto.HistoryResponse{
		Entries: make([]dto.LedgerEntryResponse, 0, len(page.Entries)),
		Meta:    dto.PageMeta{Total: page.Total, Page: page.Page, PageSize: page.PageSize},
	}
	for _, e := range page.Entries {
		out.Entries = append(out.Entries, dto.LedgerEntryResponse{
			Event:          toStockEventResponse(e.Event),
			RunningBalance: decimalPtrString(e.RunningBalance),
		})
	}
	return c.JSON(out)
}
