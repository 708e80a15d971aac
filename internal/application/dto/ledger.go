package dto

import "time"

// PostTransactionRequest posteo directo al ledger (recepción, picking,
// ajuste, devolución). La cantidad viaja como string decimal con el signo
// que corresponda al tipo de evento.
type PostTransactionRequest struct {
	SkuID         string `json:"sku_id"`
	WarehouseID   string `json:"warehouse_id"`
	EventType     string `json:"event_type"`
	QuantityDelta string `json:"quantity_delta"`
	ReferenceID   string `json:"reference_id"`
	ReasonCode    string `json:"reason_code"`
	Notes         string `json:"notes"`
}

// CycleCountRequest conteo cíclico: cantidad física contada, no delta.
type CycleCountRequest struct {
	SkuID       string `json:"sku_id"`
	WarehouseID string `json:"warehouse_id"`
	CountedQty  string `json:"counted_qty"`
	Notes       string `json:"notes"`
}

// StockEventResponse asiento del ledger serializado.
type StockEventResponse struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	SkuID         string    `json:"sku_id"`
	WarehouseID   string    `json:"warehouse_id"`
	EventType     string    `json:"event_type"`
	QuantityDelta string    `json:"quantity_delta"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	ReasonCode    string    `json:"reason_code,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
}

// StockLevelResponse saldo actual de una clave (tenant, sku, bodega).
type StockLevelResponse struct {
	SkuID       string `json:"sku_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    string `json:"quantity"`
}

// LedgerEntryResponse fila de historial; running_balance solo viene cuando el
// filtro fijó (sku_id, warehouse_id).
type LedgerEntryResponse struct {
	Event          StockEventResponse `json:"event"`
	RunningBalance *string            `json:"running_balance,omitempty"`
}

// HistoryResponse página de historial.
type HistoryResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
	Meta    PageMeta              `json:"meta"`
}
