package dto

import "time"

// ── Traslados ────────────────────────────────────────────────────────────────

// TransferLineRequest línea al crear un traslado.
type TransferLineRequest struct {
	SkuID    string `json:"sku_id"`
	Quantity string `json:"quantity"`
}

// CreateTransferRequest traslado entre bodegas del tenant.
type CreateTransferRequest struct {
	FromWarehouseID string                `json:"from_warehouse_id"`
	ToWarehouseID   string                `json:"to_warehouse_id"`
	Notes           string                `json:"notes"`
	Lines           []TransferLineRequest `json:"lines"`
}

// ReceiptLineRequest cantidad recibida de una línea. Vale para traslados y
// órdenes de compra.
type ReceiptLineRequest struct {
	LineID   string `json:"line_id"`
	Quantity string `json:"quantity"`
}

// ReceiveTransferRequest recepción parcial o total; sin líneas = recibir todo
// lo pendiente.
type ReceiveTransferRequest struct {
	Lines []ReceiptLineRequest `json:"lines"`
}

// TransferLineResponse línea de traslado serializada.
type TransferLineResponse struct {
	ID                string `json:"id"`
	SkuID             string `json:"sku_id"`
	QuantityRequested string `json:"quantity_requested"`
	QuantityReceived  string `json:"quantity_received"`
}

// TransferResponse traslado serializado con líneas.
type TransferResponse struct {
	ID              string                 `json:"id"`
	TenantID        string                 `json:"tenant_id"`
	FromWarehouseID string                 `json:"from_warehouse_id"`
	ToWarehouseID   string                 `json:"to_warehouse_id"`
	Status          string                 `json:"status"`
	Notes           string                 `json:"notes,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	ReceivedAt      *time.Time             `json:"received_at,omitempty"`
	Lines           []TransferLineResponse `json:"lines"`
}

// ── Ensamble / BOM ───────────────────────────────────────────────────────────

// BOMLineRequest componente de la receta.
type BOMLineRequest struct {
	ComponentSkuID string `json:"component_sku_id"`
	Quantity       string `json:"quantity"`
	Unit           string `json:"unit"`
}

// CreateBOMRequest nueva versión de receta para un SKU terminado.
type CreateBOMRequest struct {
	FinishedSkuID         string           `json:"finished_sku_id"`
	LandedCost            string           `json:"landed_cost"`
	LandedCostDescription string           `json:"landed_cost_description"`
	Lines                 []BOMLineRequest `json:"lines"`
}

// BOMLineResponse componente serializado.
type BOMLineResponse struct {
	ID             string `json:"id"`
	ComponentSkuID string `json:"component_sku_id"`
	Quantity       string `json:"quantity"`
	Unit           string `json:"unit,omitempty"`
}

// BOMResponse receta serializada.
type BOMResponse struct {
	ID                    string            `json:"id"`
	TenantID              string            `json:"tenant_id"`
	FinishedSkuID         string            `json:"finished_sku_id"`
	Version               int               `json:"version"`
	IsActive              bool              `json:"is_active"`
	LandedCost            string            `json:"landed_cost"`
	LandedCostDescription string            `json:"landed_cost_description,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	Lines                 []BOMLineResponse `json:"lines"`
}

// StartAssemblyRequest inicio de orden de ensamble contra la BOM activa.
type StartAssemblyRequest struct {
	BOMID       string `json:"bom_id"`
	WarehouseID string `json:"warehouse_id"`
	PlannedQty  string `json:"planned_qty"`
}

// AvailabilityQueryRequest verificación de componentes para una cantidad.
type AvailabilityQueryRequest struct {
	WarehouseID string `json:"warehouse_id"`
	PlannedQty  string `json:"planned_qty"`
}

// CompleteAssemblyRequest cierre de orden con producido y merma.
type CompleteAssemblyRequest struct {
	ProducedQty string `json:"produced_qty"`
	WasteQty    string `json:"waste_qty"`
	WasteReason string `json:"waste_reason"`
}

// AssemblyOrderResponse orden de ensamble serializada.
type AssemblyOrderResponse struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	BOMID       string     `json:"bom_id"`
	BOMVersion  int        `json:"bom_version"`
	WarehouseID string     `json:"warehouse_id"`
	PlannedQty  string     `json:"planned_qty"`
	ProducedQty *string    `json:"produced_qty,omitempty"`
	WasteQty    *string    `json:"waste_qty,omitempty"`
	WasteReason string     `json:"waste_reason,omitempty"`
	CogsPerUnit *string    `json:"cogs_per_unit,omitempty"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ShortageResponse faltante detectado al verificar disponibilidad o asignar.
type ShortageResponse struct {
	SkuID     string `json:"sku_id"`
	Required  string `json:"required"`
	Available string `json:"available"`
	Shortage  string `json:"shortage"`
}

// AvailabilityResponse resultado de verificación de componentes.
type AvailabilityResponse struct {
	CanAssemble bool               `json:"can_assemble"`
	Shortages   []ShortageResponse `json:"shortages,omitempty"`
}

// ── Órdenes de compra ────────────────────────────────────────────────────────

// PurchaseLineRequest línea de compra.
type PurchaseLineRequest struct {
	SkuID           string `json:"sku_id"`
	QuantityOrdered string `json:"quantity_ordered"`
	UnitCost        string `json:"unit_cost"`
}

// CreatePurchaseOrderRequest orden de compra en borrador.
type CreatePurchaseOrderRequest struct {
	SupplierName string                `json:"supplier_name"`
	WarehouseID  string                `json:"warehouse_id"`
	Notes        string                `json:"notes"`
	Lines        []PurchaseLineRequest `json:"lines"`
}

// ReceivePurchaseRequest recepción de líneas de compra.
type ReceivePurchaseRequest struct {
	Lines []ReceiptLineRequest `json:"lines"`
}

// PurchaseLineResponse línea de compra serializada.
type PurchaseLineResponse struct {
	ID               string `json:"id"`
	SkuID            string `json:"sku_id"`
	QuantityOrdered  string `json:"quantity_ordered"`
	QuantityReceived string `json:"quantity_received"`
	UnitCost         string `json:"unit_cost"`
}

// PurchaseOrderResponse orden de compra serializada.
type PurchaseOrderResponse struct {
	ID           string                 `json:"id"`
	TenantID     string                 `json:"tenant_id"`
	SupplierName string                 `json:"supplier_name"`
	WarehouseID  string                 `json:"warehouse_id"`
	Status       string                 `json:"status"`
	Notes        string                 `json:"notes,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Lines        []PurchaseLineResponse `json:"lines"`
}

// PurchaseOrderListResponse listado paginado.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Meta  PageMeta                `json:"meta"`
}

// ── Órdenes de venta ─────────────────────────────────────────────────────────

// SalesLineRequest línea de venta.
type SalesLineRequest struct {
	SkuID     string `json:"sku_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// CreateSalesOrderRequest orden de venta en PENDING.
type CreateSalesOrderRequest struct {
	CustomerName    string             `json:"customer_name"`
	OrderReference  string             `json:"order_reference"`
	ShippingAddress string             `json:"shipping_address"`
	Lines           []SalesLineRequest `json:"lines"`
}

// AllocateSalesOrderRequest bodega desde la que se reserva.
type AllocateSalesOrderRequest struct {
	WarehouseID string `json:"warehouse_id"`
}

// SalesLineResponse línea de venta serializada.
type SalesLineResponse struct {
	ID           string `json:"id"`
	SkuID        string `json:"sku_id"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	FulfilledQty string `json:"fulfilled_qty"`
}

// SalesOrderResponse orden de venta serializada.
type SalesOrderResponse struct {
	ID              string              `json:"id"`
	TenantID        string              `json:"tenant_id"`
	CustomerName    string              `json:"customer_name"`
	OrderReference  string              `json:"order_reference,omitempty"`
	ShippingAddress string              `json:"shipping_address,omitempty"`
	WarehouseID     string              `json:"warehouse_id,omitempty"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Lines           []SalesLineResponse `json:"lines"`
}

// AllocationResultResponse resultado de asignación: o la orden quedó en
// PROCESSING, o la lista de faltantes sin mutar nada.
type AllocationResultResponse struct {
	Allocated bool                `json:"allocated"`
	Order     *SalesOrderResponse `json:"order,omitempty"`
	Shortages []ShortageResponse  `json:"shortages,omitempty"`
}

// ── Escáner ──────────────────────────────────────────────────────────────────

// ScanRequest operación de escáner sobre un código de barras.
type ScanRequest struct {
	Barcode     string `json:"barcode"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    string `json:"quantity"`
	ReferenceID string `json:"reference_id"`
	ReasonCode  string `json:"reason_code"`
	Notes       string `json:"notes"`
}

// ScanLookupResponse SKU resuelto por código de barras con saldo.
type ScanLookupResponse struct {
	Sku     SKUResponse `json:"sku"`
	Balance string      `json:"balance"`
}
