package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de TransferOrder.
const (
	TransferPending   = "PENDING"
	TransferInTransit = "IN_TRANSIT"
	TransferReceived  = "RECEIVED"
	TransferCancelled = "CANCELLED"
)

// transferTransitions tabla de transiciones permitidas. Todo cambio de estado
// pasa por CanTransition; un estado destino fuera de tabla es ErrStaleAggregateState.
var transferTransitions = map[string][]string{
	TransferPending:   {TransferInTransit, TransferCancelled},
	TransferInTransit: {TransferReceived, TransferCancelled},
	TransferReceived:  {},
	TransferCancelled: {},
}

// TransferOrder traslado de stock entre bodegas del mismo tenant.
// La creación postea TRANSFER_OUT en origen (atómico con la orden); la
// recepción postea TRANSFER_IN en destino por línea, con parciales.
type TransferOrder struct {
	ID              string
	TenantID        string
	FromWarehouseID string
	ToWarehouseID   string
	Status          string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	ReceivedAt      *time.Time
	Lines           []*TransferOrderLine
}

// TransferOrderLine línea de traslado: pedido vs recibido.
type TransferOrderLine struct {
	ID                string
	TransferOrderID   string
	SkuID             string
	QuantityRequested decimal.Decimal
	QuantityReceived  decimal.Decimal
}

// CanTransition indica si el cambio de estado está permitido por la tabla.
func (o *TransferOrder) CanTransition(to string) bool {
	for _, s := range transferTransitions[o.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// FullyReceived true si toda línea alcanzó su cantidad pedida.
func (o *TransferOrder) FullyReceived() bool {
	for _, l := range o.Lines {
		if l.QuantityReceived.LessThan(l.QuantityRequested) {
			return false
		}
	}
	return true
}

// AnyReceived true si alguna línea registró recepción (bloquea cancelación).
func (o *TransferOrder) AnyReceived() bool {
	for _, l := range o.Lines {
		if l.QuantityReceived.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}
