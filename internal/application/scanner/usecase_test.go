package scanner_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/application/scanner"
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
	barcode  = "7701234567890"
	userOp   = "00000000-0000-0000-0000-0000000000u1"
)

type fixture struct {
	st *testsupport.Store
	uc *scanner.UseCase
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
	uc := scanner.NewUseCase(engine, testsupport.NewSKURepo(st), log)
	st.AddWarehouse(&entity.Warehouse{ID: whMain, TenantID: tenantA, Name: "Central", Code: "C1", IsActive: true})
	st.AddSKU(&entity.SKU{ID: skuSilla, TenantID: tenantA, Code: barcode, Name: "Silla"})
	return &fixture{st: st, uc: uc}
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// ──────────────────────────────────────────────────────────────────────────────
// Lookup
// ──────────────────────────────────────────────────────────────────────────────

func TestLookup_ResuelveCodigoConSaldo(t *testing.T) {
	f := newFixture(t)
	f.st.AddEvent(&entity.StockEvent{
		ID: "seed-1", TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventReceive, QuantityDelta: d(7), CreatedBy: userOp,
	})

	res, err := f.uc.Lookup(context.Background(), tenantA, barcode, whMain)
	require.NoError(t, err)
	assert.Equal(t, skuSilla, res.Sku.ID)
	assert.Equal(t, "Silla", res.Sku.Name)
	assert.True(t, res.Balance.Equal(d(7)))
}

func TestLookup_CodigoDesconocido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Lookup(context.Background(), tenantA, "0000000000000", whMain)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLookup_CodigoVacio(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Lookup(context.Background(), tenantA, "", whMain)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLookup_SkuArchivadoRechazado(t *testing.T) {
	f := newFixture(t)
	f.st.AddSKU(&entity.SKU{
		ID: "sku-viejo", TenantID: tenantA, Code: "7709999999999", Name: "Descontinuado", IsArchived: true,
	})
	_, err := f.uc.Lookup(context.Background(), tenantA, "7709999999999", whMain)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLookup_NoCruzaTenants(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Lookup(context.Background(), "otro-tenant", barcode, whMain)
	assert.ErrorIs(t, err, domain.ErrNotFound, "el código de un tenant no resuelve en otro")
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos por escaneo
// ──────────────────────────────────────────────────────────────────────────────

func TestScanReceive_PosteaEntrada(t *testing.T) {
	f := newFixture(t)

	ev, err := f.uc.ScanReceive(context.Background(), tenantA, barcode, whMain, d(5), "PO-1", userOp)
	require.NoError(t, err)
	assert.Equal(t, entity.EventReceive, ev.EventType)
	assert.Equal(t, skuSilla, ev.SkuID)
	assert.Equal(t, "PO-1", ev.ReferenceID)
	assert.True(t, ev.QuantityDelta.Equal(d(5)))
}

func TestScanPick_NiegaLaCantidadEscaneada(t *testing.T) {
	f := newFixture(t)
	f.st.AddEvent(&entity.StockEvent{
		ID: "seed-1", TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventReceive, QuantityDelta: d(10), CreatedBy: userOp,
	})

	ev, err := f.uc.ScanPick(context.Background(), tenantA, barcode, whMain, d(3), "", userOp)
	require.NoError(t, err)
	assert.Equal(t, entity.EventPick, ev.EventType)
	assert.True(t, ev.QuantityDelta.Equal(d(-3)), "la cantidad escaneada se postea negada")
}

func TestScanPick_SinSaldoNoMueveNada(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.ScanPick(context.Background(), tenantA, barcode, whMain, d(1), "", userOp)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 0, f.st.EventCount())
}

func TestScanReceive_CantidadNoPositivaRechazada(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.ScanReceive(context.Background(), tenantA, barcode, whMain, decimal.Zero, "", userOp)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.ScanPick(context.Background(), tenantA, barcode, whMain, d(-2), "", userOp)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScanAdjust_RequiereMotivo(t *testing.T) {
	f := newFixture(t)
	f.st.AddEvent(&entity.StockEvent{
		ID: "seed-1", TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventReceive, QuantityDelta: d(10), CreatedBy: userOp,
	})
	ctx := context.Background()

	_, err := f.uc.ScanAdjust(ctx, tenantA, barcode, whMain, d(-2), "", "caja rota", userOp)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ev, err := f.uc.ScanAdjust(ctx, tenantA, barcode, whMain, d(-2), "DAMAGED", "caja rota", userOp)
	require.NoError(t, err)
	assert.Equal(t, entity.EventAdjust, ev.EventType)
	assert.Equal(t, "DAMAGED", ev.ReasonCode)
}
