package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de AssemblyOrder.
const (
	AssemblyPending    = "PENDING"
	AssemblyInProgress = "IN_PROGRESS"
	AssemblyComplete   = "COMPLETE"
	AssemblyCancelled  = "CANCELLED"
)

var assemblyTransitions = map[string][]string{
	AssemblyPending:    {AssemblyInProgress, AssemblyCancelled},
	AssemblyInProgress: {AssemblyComplete, AssemblyCancelled},
	AssemblyComplete:   {},
	AssemblyCancelled:  {},
}

// AssemblyOrder orden de ensamble contra una versión fija de BOM.
// Iniciar consume componentes (ASSEMBLE_OUT); completar produce el SKU
// terminado (ASSEMBLE_IN) con COGS calculado y registra producido/merma.
type AssemblyOrder struct {
	ID          string
	TenantID    string
	BOMID       string
	BOMVersion  int
	WarehouseID string
	PlannedQty  decimal.Decimal
	ProducedQty *decimal.Decimal
	WasteQty    *decimal.Decimal
	WasteReason string
	CogsPerUnit *decimal.Decimal
	Status      string
	CreatedBy   string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// CanTransition indica si el cambio de estado está permitido.
func (o *AssemblyOrder) CanTransition(to string) bool {
	for _, s := range assemblyTransitions[o.Status] {
		if s == to {
			return true
		}
	}
	return false
}
