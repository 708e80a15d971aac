package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de PurchaseOrder.
const (
	PODraft     = "DRAFT"
	POOrdered   = "ORDERED"
	POPartial   = "PARTIAL"
	POReceived  = "RECEIVED"
	POCancelled = "CANCELLED"
)

var poTransitions = map[string][]string{
	PODraft:     {POOrdered, POPartial, POReceived, POCancelled},
	POOrdered:   {POPartial, POReceived, POCancelled},
	POPartial:   {POReceived},
	POReceived:  {},
	POCancelled: {},
}

// PurchaseOrder compra entrante de un proveedor. La recepción por línea
// postea RECEIVE en el ledger; cancelar se bloquea en cuanto alguna línea
// registró recepción.
type PurchaseOrder struct {
	ID           string
	TenantID     string
	SupplierName string
	WarehouseID  string
	Status       string
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []*PurchaseOrderLine
}

// PurchaseOrderLine línea de compra: pedido vs recibido, con costo unitario.
type PurchaseOrderLine struct {
	ID               string
	PurchaseOrderID  string
	SkuID            string
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
}

// CanTransition indica si el cambio de estado está permitido.
func (o *PurchaseOrder) CanTransition(to string) bool {
	for _, s := range poTransitions[o.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// FullyReceived true si toda línea alcanzó la cantidad pedida.
func (o *PurchaseOrder) FullyReceived() bool {
	for _, l := range o.Lines {
		if l.QuantityReceived.LessThan(l.QuantityOrdered) {
			return false
		}
	}
	return true
}

// AnyReceived true si alguna línea registró recepción.
func (o *PurchaseOrder) AnyReceived() bool {
	for _, l := range o.Lines {
		if l.QuantityReceived.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}
