package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKU artículo inventariable. Code funciona también como código de barras
// para el flujo de escáner. Attributes se valida contra el esquema del
// ItemType en la capa externa.
type SKU struct {
	ID           string
	TenantID     string
	Code         string
	Name         string
	ItemTypeID   string
	Attributes   map[string]any
	ReorderPoint *decimal.Decimal
	UnitCost     *decimal.Decimal
	IsArchived   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
