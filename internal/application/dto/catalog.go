package dto

import "time"

// CreateWarehouseRequest datos para crear una bodega.
type CreateWarehouseRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

// UpdateWarehouseRequest campos mutables de bodega. Punteros: nil = sin cambio.
type UpdateWarehouseRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Timezone *string `json:"timezone"`
	IsActive *bool   `json:"is_active"`
}

// WarehouseResponse bodega serializada.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   string    `json:"address"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateItemTypeRequest tipo de artículo con esquema de atributos libre.
type CreateItemTypeRequest struct {
	Name            string           `json:"name"`
	Code            string           `json:"code"`
	AttributeSchema []map[string]any `json:"attribute_schema"`
}

// ItemTypeResponse tipo de artículo serializado.
type ItemTypeResponse struct {
	ID              string           `json:"id"`
	TenantID        string           `json:"tenant_id"`
	Name            string           `json:"name"`
	Code            string           `json:"code"`
	AttributeSchema []map[string]any `json:"attribute_schema"`
	Version         int              `json:"version"`
	IsArchived      bool             `json:"is_archived"`
	CreatedAt       time.Time        `json:"created_at"`
}

// CreateSKURequest alta de SKU. Code funciona además como código de barras.
type CreateSKURequest struct {
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	ItemTypeID   string         `json:"item_type_id"`
	Attributes   map[string]any `json:"attributes"`
	ReorderPoint *string        `json:"reorder_point"` // decimal como string
	UnitCost     *string        `json:"unit_cost"`
}

// UpdateSKURequest campos mutables de SKU. Punteros: nil = sin cambio.
type UpdateSKURequest struct {
	Name         *string        `json:"name"`
	Attributes   map[string]any `json:"attributes"`
	ReorderPoint *string        `json:"reorder_point"`
	UnitCost     *string        `json:"unit_cost"`
}

// SKUResponse SKU serializado.
type SKUResponse struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	ItemTypeID   string         `json:"item_type_id"`
	Attributes   map[string]any `json:"attributes"`
	ReorderPoint *string        `json:"reorder_point,omitempty"`
	UnitCost     *string        `json:"unit_cost,omitempty"`
	IsArchived   bool           `json:"is_archived"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SKUListResponse listado paginado de SKUs.
type SKUListResponse struct {
	Items []SKUResponse `json:"items"`
	Meta  PageMeta      `json:"meta"`
}
