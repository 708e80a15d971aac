package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Solo bodegas activas aceptan posteos al ledger.
type Warehouse struct {
	ID        string
	TenantID  string
	Name      string
	Code      string
	Address   string
	Timezone  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
