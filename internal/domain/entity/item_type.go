package entity

import "time"

// ItemType tipo de artículo con esquema de atributos dinámico (JSONB).
// El esquema describe los atributos que un SKU de este tipo puede llevar;
// la validación profunda del esquema queda fuera del núcleo del ledger.
type ItemType struct {
	ID              string
	TenantID        string
	Name            string
	Code            string
	AttributeSchema []map[string]any
	Version         int
	IsArchived      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
