package entity

import "time"

// Tenant representa una organización cliente. Todo dato operativo está
// acotado por TenantID; no hay visibilidad cruzada.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
