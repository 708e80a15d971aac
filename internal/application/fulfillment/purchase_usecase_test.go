package fulfillment_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-ims/nexus-api/internal/application/fulfillment"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/testsupport"
	"github.com/nexus-ims/nexus-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenantA  = "00000000-0000-0000-0000-00000000000a"
	whMain   = "00000000-0000-0000-0000-0000000000w1"
	skuSilla = "00000000-0000-0000-0000-0000000000s1"
	skuMesa  = "00000000-0000-0000-0000-0000000000s2"
	userOp   = "00000000-0000-0000-0000-0000000000u1"
)

type fixture struct {
	st      *testsupport.Store
	poUC    *fulfillment.PurchaseUseCase
	salesUC *fulfillment.SalesUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testsupport.NewStore()
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	engine := ledger.NewEngine(
		testsupport.NewTxRunner(st),
		testsupport.NewEventRepo(st),
		testsupport.NewCache(),
		testsupport.NewWarehouseRepo(st),
		log,
	)
	st.AddWarehouse(&entity.Warehouse{ID: whMain, TenantID: tenantA, Name: "Central", Code: "C1", IsActive: true})
	return &fixture{
		st:      st,
		poUC:    fulfillment.NewPurchaseUseCase(testsupport.NewTxRunner(st), engine, testsupport.NewPurchaseRepo(st), log),
		salesUC: fulfillment.NewSalesUseCase(testsupport.NewTxRunner(st), engine, testsupport.NewSalesRepo(st), log),
	}
}

func (f *fixture) seedStock(skuID string, qty int64) {
	f.st.AddEvent(&entity.StockEvent{
		ID: "seed-" + skuID, TenantID: tenantA, SkuID: skuID, WarehouseID: whMain,
		EventType: entity.EventReceive, QuantityDelta: decimal.NewFromInt(qty), CreatedBy: userOp,
	})
}

func (f *fixture) balance(t *testing.T, skuID string) decimal.Decimal {
	t.Helper()
	qty, err := testsupport.NewEventRepo(f.st).SumBalance(tenantA, skuID, whMain)
	require.NoError(t, err)
	return qty
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de compra
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchase_CicloCompletoDeRecepcion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	po, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
		[]fulfillment.PurchaseLineInput{
			{SkuID: skuSilla, QuantityOrdered: d(100), UnitCost: decimal.RequireFromString("8.50")},
		})
	require.NoError(t, err)
	assert.Equal(t, entity.PODraft, po.Status)

	po, err = f.poUC.MarkOrdered(ctx, tenantA, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POOrdered, po.Status)

	// Recepción parcial: entra stock y la orden queda PARTIAL.
	po, err = f.poUC.Receive(ctx, tenantA, po.ID, userOp,
		[]fulfillment.ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: d(40)}})
	require.NoError(t, err)
	assert.Equal(t, entity.POPartial, po.Status)
	assert.True(t, po.Lines[0].QuantityReceived.Equal(d(40)))
	assert.True(t, f.balance(t, skuSilla).Equal(d(40)))

	// Recepción del resto: la orden cierra.
	po, err = f.poUC.Receive(ctx, tenantA, po.ID, userOp,
		[]fulfillment.ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: d(60)}})
	require.NoError(t, err)
	assert.Equal(t, entity.POReceived, po.Status)
	assert.True(t, f.balance(t, skuSilla).Equal(d(100)))

	receives := f.st.EventsByType(entity.EventReceive)
	require.Len(t, receives, 2)
	assert.Equal(t, po.ID, receives[0].ReferenceID)
}

func TestPurchase_RecibirEnDraftEsValido(t *testing.T) {
	// Recepción directa sin MarkOrdered: mercancía que llega antes del papeleo.
	f := newFixture(t)
	ctx := context.Background()
	po, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
		[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(10), UnitCost: decimal.Zero}})
	require.NoError(t, err)

	po, err = f.poUC.Receive(ctx, tenantA, po.ID, userOp,
		[]fulfillment.ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: d(10)}})
	require.NoError(t, err)
	assert.Equal(t, entity.POReceived, po.Status)
}

func TestPurchase_ExcederLoOrdenadoRechazado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
		[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(10), UnitCost: decimal.Zero}})
	require.NoError(t, err)

	_, err = f.poUC.Receive(ctx, tenantA, po.ID, userOp,
		[]fulfillment.ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: d(11)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, f.balance(t, skuSilla).IsZero())
}

func TestPurchase_CancelarSoloSinRecepciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
		[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(10), UnitCost: decimal.Zero}})
	require.NoError(t, err)

	got, err := f.poUC.CancelPurchaseOrder(ctx, tenantA, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POCancelled, got.Status)
}

func TestPurchase_CancelarTrasRecepcionBloqueado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
		[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(10), UnitCost: decimal.Zero}})
	require.NoError(t, err)
	_, err = f.poUC.Receive(ctx, tenantA, po.ID, userOp,
		[]fulfillment.ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: d(3)}})
	require.NoError(t, err)

	_, err = f.poUC.CancelPurchaseOrder(ctx, tenantA, po.ID)
	assert.ErrorIs(t, err, domain.ErrStaleAggregateState)
}

func TestPurchase_BodegaInexistenteRechazada(t *testing.T) {
	f := newFixture(t)
	_, err := f.poUC.CreatePurchaseOrder(context.Background(), tenantA, userOp, "Maderas SAS", "no-existe", "",
		[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(1), UnitCost: decimal.Zero}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurchase_ListConTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
			[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(1), UnitCost: decimal.Zero}})
		require.NoError(t, err)
	}

	orders, total, err := f.poUC.ListPurchaseOrders(ctx, tenantA, "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 3, total, "el total cuenta todas las órdenes, no la página")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia sobre la misma orden de compra
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchase_RecepcionesSimultaneasNoExcedenLoOrdenado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
		[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(10), UnitCost: decimal.Zero}})
	require.NoError(t, err)
	lineID := po.Lines[0].ID

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.poUC.Receive(ctx, tenantA, po.ID, userOp,
				[]fulfillment.ReceiptLineInput{{LineID: lineID, Quantity: d(10)}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var oks int
	for err := range errs {
		if err == nil {
			oks++
		} else {
			// La perdedora relee la orden ya cerrada con la cabecera bloqueada.
			assert.ErrorIs(t, err, domain.ErrStaleAggregateState)
		}
	}
	assert.Equal(t, 1, oks, "solo una recepción total gana")
	assert.True(t, f.balance(t, skuSilla).Equal(d(10)), "nunca entra más de lo ordenado")
	assert.Len(t, f.st.EventsByType(entity.EventReceive), 1)
}

func TestPurchase_RecibirYCancelarSimultaneosNuncaDejanCanceladaConStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, err := f.poUC.CreatePurchaseOrder(ctx, tenantA, userOp, "Maderas SAS", whMain, "",
		[]fulfillment.PurchaseLineInput{{SkuID: skuSilla, QuantityOrdered: d(10), UnitCost: decimal.Zero}})
	require.NoError(t, err)
	po, err = f.poUC.MarkOrdered(ctx, tenantA, po.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.poUC.Receive(ctx, tenantA, po.ID, userOp,
			[]fulfillment.ReceiptLineInput{{LineID: po.Lines[0].ID, Quantity: d(10)}})
	}()
	go func() {
		defer wg.Done()
		f.poUC.CancelPurchaseOrder(ctx, tenantA, po.ID)
	}()
	wg.Wait()

	// Gane quien gane, la combinación prohibida es una orden cancelada cuyo
	// stock ya entró al ledger.
	got, err := f.poUC.GetPurchaseOrder(ctx, tenantA, po.ID)
	require.NoError(t, err)
	if got.Status == entity.POCancelled {
		assert.False(t, got.AnyReceived())
		assert.True(t, f.balance(t, skuSilla).IsZero())
		assert.Empty(t, f.st.EventsByType(entity.EventReceive))
	} else {
		assert.Equal(t, entity.POReceived, got.Status)
		assert.True(t, f.balance(t, skuSilla).Equal(d(10)))
	}
}
