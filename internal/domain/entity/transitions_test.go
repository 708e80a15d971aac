package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Máquinas de estado de las órdenes
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferOrder_Transiciones(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{entity.TransferPending, entity.TransferInTransit, true},
		{entity.TransferPending, entity.TransferCancelled, true},
		{entity.TransferPending, entity.TransferReceived, false},
		{entity.TransferInTransit, entity.TransferReceived, true},
		{entity.TransferInTransit, entity.TransferCancelled, true},
		{entity.TransferReceived, entity.TransferCancelled, false},
		{entity.TransferCancelled, entity.TransferInTransit, false},
	}
	for _, tc := range cases {
		o := &entity.TransferOrder{Status: tc.from}
		assert.Equal(t, tc.ok, o.CanTransition(tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestAssemblyOrder_Transiciones(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{entity.AssemblyPending, entity.AssemblyInProgress, true},
		{entity.AssemblyPending, entity.AssemblyComplete, false},
		{entity.AssemblyInProgress, entity.AssemblyComplete, true},
		{entity.AssemblyInProgress, entity.AssemblyCancelled, true},
		{entity.AssemblyComplete, entity.AssemblyCancelled, false},
		{entity.AssemblyCancelled, entity.AssemblyInProgress, false},
	}
	for _, tc := range cases {
		o := &entity.AssemblyOrder{Status: tc.from}
		assert.Equal(t, tc.ok, o.CanTransition(tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestPurchaseOrder_Transiciones(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{entity.PODraft, entity.POOrdered, true},
		{entity.PODraft, entity.POCancelled, true},
		{entity.POOrdered, entity.POPartial, true},
		{entity.POOrdered, entity.POReceived, true},
		{entity.POPartial, entity.POReceived, true},
		{entity.POPartial, entity.POCancelled, false}, // con recepción ya no se cancela
		{entity.POReceived, entity.POCancelled, false},
		{entity.POCancelled, entity.POOrdered, false},
	}
	for _, tc := range cases {
		o := &entity.PurchaseOrder{Status: tc.from}
		assert.Equal(t, tc.ok, o.CanTransition(tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestSalesOrder_Transiciones(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{entity.SOPending, entity.SOProcessing, true},
		{entity.SOPending, entity.SOShipped, false}, // despachar exige asignación previa
		{entity.SOProcessing, entity.SOShipped, true},
		{entity.SOProcessing, entity.SOCancelled, true},
		{entity.SOShipped, entity.SOCancelled, false},
		{entity.SOCancelled, entity.SOProcessing, false},
	}
	for _, tc := range cases {
		o := &entity.SalesOrder{Status: tc.from}
		assert.Equal(t, tc.ok, o.CanTransition(tc.to), "%s → %s", tc.from, tc.to)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción por líneas
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferOrder_RecepcionPorLineas(t *testing.T) {
	o := &entity.TransferOrder{
		Lines: []*entity.TransferOrderLine{
			{QuantityRequested: decimal.NewFromInt(10), QuantityReceived: decimal.Zero},
			{QuantityRequested: decimal.NewFromInt(5), QuantityReceived: decimal.Zero},
		},
	}
	assert.False(t, o.AnyReceived())
	assert.False(t, o.FullyReceived())

	o.Lines[0].QuantityReceived = decimal.NewFromInt(10)
	assert.True(t, o.AnyReceived())
	assert.False(t, o.FullyReceived(), "queda una línea pendiente")

	o.Lines[1].QuantityReceived = decimal.NewFromInt(5)
	assert.True(t, o.FullyReceived())
}

func TestPurchaseOrder_RecepcionPorLineas(t *testing.T) {
	o := &entity.PurchaseOrder{
		Lines: []*entity.PurchaseOrderLine{
			{QuantityOrdered: decimal.NewFromInt(100), QuantityReceived: decimal.NewFromInt(40)},
		},
	}
	assert.True(t, o.AnyReceived())
	assert.False(t, o.FullyReceived())

	o.Lines[0].QuantityReceived = decimal.NewFromInt(100)
	assert.True(t, o.FullyReceived())
}
