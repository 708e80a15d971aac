package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de SalesOrder.
const (
	SOPending    = "PENDING"
	SOProcessing = "PROCESSING"
	SOShipped    = "SHIPPED"
	SOCancelled  = "CANCELLED"
)

var soTransitions = map[string][]string{
	SOPending:    {SOProcessing, SOCancelled},
	SOProcessing: {SOShipped, SOCancelled},
	SOShipped:    {},
	SOCancelled:  {},
}

// SalesOrder orden de venta saliente. Asignar reserva stock (RESERVE_OUT);
// despachar libera la reserva y descuenta físico (RESERVE_IN + SHIP_OUT);
// cancelar desde PROCESSING compensa las reservas con RESERVE_IN.
type SalesOrder struct {
	ID              string
	TenantID        string
	CustomerName    string
	OrderReference  string
	ShippingAddress string
	WarehouseID     string // bodega de asignación; vacío hasta Allocate
	Status          string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Lines           []*SalesOrderLine
}

// SalesOrderLine línea de venta con cantidad pedida y despachada.
type SalesOrderLine struct {
	ID           string
	SalesOrderID string
	SkuID        string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	FulfilledQty decimal.Decimal
}

// CanTransition indica si el cambio de estado está permitido.
func (o *SalesOrder) CanTransition(to string) bool {
	for _, s := range soTransitions[o.Status] {
		if s == to {
			return true
		}
	}
	return false
}
