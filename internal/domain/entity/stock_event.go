package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento del stock ledger. Cada tipo fija el signo del delta.
const (
	EventReceive     = "RECEIVE"      // entrada por compra/recepción (+)
	EventPick        = "PICK"         // salida por picking (−)
	EventAdjust      = "ADJUST"       // ajuste manual (cualquier signo, requiere reason_code)
	EventReturn      = "RETURN"       // devolución de cliente (+)
	EventTransferOut = "TRANSFER_OUT" // salida por traslado (−)
	EventTransferIn  = "TRANSFER_IN"  // entrada por traslado (+)
	EventAssembleOut = "ASSEMBLE_OUT" // consumo de componentes (−)
	EventAssembleIn  = "ASSEMBLE_IN"  // producto terminado (+)
	EventCycleCount  = "CYCLE_COUNT"  // conteo cíclico: delta = contado − saldo actual
	EventShipOut     = "SHIP_OUT"     // despacho de orden de venta (−)
	EventReserveOut  = "RESERVE_OUT"  // reserva de stock (−)
	EventReserveIn   = "RESERVE_IN"   // liberación de reserva (+)
)

// eventSigns signo esperado del quantity_delta por tipo: +1 entrada, -1 salida,
// 0 cualquier signo (ADJUST y CYCLE_COUNT).
var eventSigns = map[string]int{
	EventReceive:     +1,
	EventPick:        -1,
	EventAdjust:      0,
	EventReturn:      +1,
	EventTransferOut: -1,
	EventTransferIn:  +1,
	EventAssembleOut: -1,
	EventAssembleIn:  +1,
	EventCycleCount:  0,
	EventShipOut:     -1,
	EventReserveOut:  -1,
	EventReserveIn:   +1,
}

// EventSign devuelve el signo esperado para el tipo de evento.
// ok=false si el tipo no existe.
func EventSign(eventType string) (sign int, ok bool) {
	sign, ok = eventSigns[eventType]
	return sign, ok
}

// StockEvent es un asiento inmutable del stock ledger (append-only).
// Nunca se actualiza ni se borra: el saldo de una clave (tenant, sku, bodega)
// es la suma de sus quantity_delta. La inmutabilidad se refuerza además en la
// capa de permisos de la base (solo INSERT y SELECT sobre stock_ledger).
type StockEvent struct {
	ID            string
	TenantID      string
	SkuID         string
	WarehouseID   string
	EventType     string
	QuantityDelta decimal.Decimal
	ReferenceID   string // orden/traslado/ensamble que originó el evento (opcional)
	ReasonCode    string // obligatorio en ADJUST
	Notes         string
	CreatedAt     time.Time
	CreatedBy     string // UserID
}

// LedgerEntry fila de historial: evento más saldo acumulado hasta ese punto.
// RunningBalance es nil cuando el filtro no fija la pareja (sku, bodega),
// porque un acumulado que mezcla claves no significa nada.
type LedgerEntry struct {
	Event          *StockEvent
	RunningBalance *decimal.Decimal
}
