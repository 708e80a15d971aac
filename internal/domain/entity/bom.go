package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOM receta de componentes para un SKU terminado. Versionado append-only:
// editar crea una versión nueva y desactiva la anterior; las versiones viejas
// quedan consultables porque las órdenes de ensamble las referencian.
type BOM struct {
	ID                    string
	TenantID              string
	FinishedSkuID         string
	Version               int
	IsActive              bool
	LandedCost            decimal.Decimal
	LandedCostDescription string
	CreatedBy             string
	CreatedAt             time.Time
	Lines                 []*BOMLine
}

// BOMLine componente de la receta con cantidad por unidad terminada.
type BOMLine struct {
	ID             string
	BOMID          string
	ComponentSkuID string
	Quantity       decimal.Decimal
	Unit           string
}

// Explode calcula la cantidad total requerida por componente para producir
// plannedQty unidades terminadas. Las líneas repetidas del mismo componente
// se acumulan.
func (b *BOM) Explode(plannedQty decimal.Decimal) map[string]decimal.Decimal {
	req := make(map[string]decimal.Decimal, len(b.Lines))
	for _, l := range b.Lines {
		req[l.ComponentSkuID] = req[l.ComponentSkuID].Add(l.Quantity.Mul(plannedQty))
	}
	return req
}
