package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	tenantA    = "00000000-0000-0000-0000-00000000000a"
	tenantB    = "00000000-0000-0000-0000-00000000000b"
	whMain     = "00000000-0000-0000-0000-0000000000w1"
	whInactive = "00000000-0000-0000-0000-0000000000w2"
	whAjeno    = "00000000-0000-0000-0000-0000000000w3"
	skuSilla   = "00000000-0000-0000-0000-0000000000s1"
	userOp     = "00000000-0000-0000-0000-0000000000u1"
)

type fixture struct {
	st     *testsupport.Store
	cache  *testsupport.Cache
	engine *ledger.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testsupport.NewStore()
	cache := testsupport.NewCache()
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	engine := ledger.NewEngine(
		testsupport.NewTxRunner(st),
		testsupport.NewEventRepo(st),
		cache,
		testsupport.NewWarehouseRepo(st),
		log,
	)
	st.AddWarehouse(&entity.Warehouse{ID: whMain, TenantID: tenantA, Name: "Central", Code: "C1", IsActive: true})
	st.AddWarehouse(&entity.Warehouse{ID: whInactive, TenantID: tenantA, Name: "Cerrada", Code: "C2", IsActive: false})
	st.AddWarehouse(&entity.Warehouse{ID: whAjeno, TenantID: tenantB, Name: "Ajena", Code: "C3", IsActive: true})
	return &fixture{st: st, cache: cache, engine: engine}
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// seedStock siembra saldo inicial posteando un RECEIVE por el motor.
func (f *fixture) seedStock(t *testing.T, skuID string, qty int64) {
	t.Helper()
	_, err := f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID:      tenantA,
		SkuID:         skuID,
		WarehouseID:   whMain,
		EventType:     entity.EventReceive,
		QuantityDelta: d(qty),
		CreatedBy:     userOp,
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, skuID string) decimal.Decimal {
	t.Helper()
	qty, err := testsupport.NewEventRepo(f.st).SumBalance(tenantA, skuID, whMain)
	require.NoError(t, err)
	return qty
}

// ──────────────────────────────────────────────────────────────────────────────
// Posteo de eventos
// ──────────────────────────────────────────────────────────────────────────────

func TestPostEvent_RecibirYRetirar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev, err := f.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventReceive, QuantityDelta: d(10), CreatedBy: userOp,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID, "el evento debe llevar ID asignado")
	assert.False(t, ev.CreatedAt.IsZero())

	_, err = f.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventPick, QuantityDelta: d(-4), CreatedBy: userOp,
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, skuSilla).Equal(d(6)), "saldo = 10 − 4")
}

func TestPostEvent_SignoInvalidoPorTipo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// RECEIVE con delta negativo.
	_, err := f.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventReceive, QuantityDelta: d(-5), CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantitySign)

	// PICK con delta positivo.
	_, err = f.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventPick, QuantityDelta: d(5), CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantitySign)

	// Delta cero se rechaza en todos los tipos.
	_, err = f.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventReceive, QuantityDelta: decimal.Zero, CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantitySign)

	assert.Equal(t, 0, f.st.EventCount(), "ningún evento debe quedar en el log")
}

func TestPostEvent_TipoDesconocido(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: "TELEPORT", QuantityDelta: d(1), CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEventType)
}

func TestPostEvent_AjusteRequiereMotivo(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 10)

	_, err := f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventAdjust, QuantityDelta: d(-2), CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ADJUST sin reason_code debe rechazarse")

	// Con motivo, admite cualquier signo.
	_, err = f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventAdjust, QuantityDelta: d(-2), ReasonCode: "DAMAGED", CreatedBy: userOp,
	})
	require.NoError(t, err)
	assert.True(t, f.balance(t, skuSilla).Equal(d(8)))
}

func TestPostEvent_StockInsuficienteNoDejaEvento(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 3)

	_, err := f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventPick, QuantityDelta: d(-5), CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.True(t, f.balance(t, skuSilla).Equal(d(3)), "el saldo no debe cambiar")
	assert.Equal(t, 1, f.st.EventCount(), "solo el RECEIVE de siembra debe existir")
}

func TestPostEvent_BodegaDeOtroTenant(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whAjeno,
		EventType: entity.EventReceive, QuantityDelta: d(1), CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)
}

func TestPostEvent_BodegaInactiva(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whInactive,
		EventType: entity.EventReceive, QuantityDelta: d(1), CreatedBy: userOp,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Ocho PICK concurrentes contra un saldo de tres: la serialización por clave
// garantiza que ganan exactamente tres y el saldo jamás queda negativo.
func TestPostEvent_PicksConcurrentesNoNegativizanElSaldo(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 3)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.PostEvent(context.Background(), ledger.PostEventInput{
				TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
				EventType: entity.EventPick, QuantityDelta: d(-1), CreatedBy: userOp,
			})
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			assert.ErrorIs(t, err, domain.ErrOutOfStock)
		}
	}
	assert.Equal(t, 3, okCount, "deben ganar exactamente tantos PICK como unidades había")
	assert.True(t, f.balance(t, skuSilla).Equal(decimal.Zero))
	assert.Len(t, f.st.EventsByType(entity.EventPick), 3)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteo cíclico
// ──────────────────────────────────────────────────────────────────────────────

func TestPostCycleCount_DeltaContraSaldoDerivado(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 10)

	ev, err := f.engine.PostCycleCount(context.Background(), tenantA, skuSilla, whMain, d(7), "conteo físico", userOp)
	require.NoError(t, err)
	assert.Equal(t, entity.EventCycleCount, ev.EventType)
	assert.True(t, ev.QuantityDelta.Equal(d(-3)), "delta = contado(7) − saldo(10)")
	assert.True(t, f.balance(t, skuSilla).Equal(d(7)))
}

func TestPostCycleCount_SinDiferenciaIgualDejaConstancia(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 5)

	ev, err := f.engine.PostCycleCount(context.Background(), tenantA, skuSilla, whMain, d(5), "", userOp)
	require.NoError(t, err)
	assert.True(t, ev.QuantityDelta.IsZero(), "conteo exacto genera evento con delta cero")
	assert.True(t, f.balance(t, skuSilla).Equal(d(5)))
}

func TestPostCycleCount_CantidadNegativa(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.PostCycleCount(context.Background(), tenantA, skuSilla, whMain, d(-1), "", userOp)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lectura de saldo cache-aside
// ──────────────────────────────────────────────────────────────────────────────

func TestGetStockLevel_MissPueblaYHitNoTocaElLog(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 12)
	ctx := context.Background()

	qty, err := f.engine.GetStockLevel(ctx, tenantA, skuSilla, whMain)
	require.NoError(t, err)
	assert.True(t, qty.Equal(d(12)))
	assert.Equal(t, 1, f.cache.Misses)
	assert.Equal(t, 1, f.cache.Sets, "el miss debe repoblar la cache")

	qty, err = f.engine.GetStockLevel(ctx, tenantA, skuSilla, whMain)
	require.NoError(t, err)
	assert.True(t, qty.Equal(d(12)))
	assert.Equal(t, 1, f.cache.Hits, "la segunda lectura debe salir de cache")
}

func TestGetStockLevel_PosteoInvalidaLaEntrada(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 10)
	ctx := context.Background()

	_, err := f.engine.GetStockLevel(ctx, tenantA, skuSilla, whMain)
	require.NoError(t, err)
	require.True(t, f.cache.Has(tenantA, skuSilla, whMain))

	_, err = f.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventPick, QuantityDelta: d(-1), CreatedBy: userOp,
	})
	require.NoError(t, err)
	assert.False(t, f.cache.Has(tenantA, skuSilla, whMain), "el posteo debe invalidar la entrada")

	qty, err := f.engine.GetStockLevel(ctx, tenantA, skuSilla, whMain)
	require.NoError(t, err)
	assert.True(t, qty.Equal(d(9)), "la relectura recalcula del log")
}

func TestGetStockLevel_CacheCaidaNoEsFatal(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 4)
	f.cache.Fail = true

	qty, err := f.engine.GetStockLevel(context.Background(), tenantA, skuSilla, whMain)
	require.NoError(t, err, "con la cache caída se lee directo del log")
	assert.True(t, qty.Equal(d(4)))
}

func TestPostEvent_InvalidacionFallidaNoFallaElPosteo(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 4)
	f.cache.Fail = true

	_, err := f.engine.PostEvent(context.Background(), ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventPick, QuantityDelta: d(-1), CreatedBy: userOp,
	})
	require.NoError(t, err, "la invalidación es best-effort")
	assert.True(t, f.balance(t, skuSilla).Equal(d(3)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Historial con saldo acumulado
// ──────────────────────────────────────────────────────────────────────────────

func TestGetTransactionHistory_AcumuladoEstableBajoPaginacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deltas := []struct {
		eventType string
		qty       int64
	}{
		{entity.EventReceive, 10},
		{entity.EventPick, -3},
		{entity.EventReceive, 5},
		{entity.EventPick, -2},
		{entity.EventReturn, 1},
	}
	for _, dd := range deltas {
		_, err := f.engine.PostEvent(ctx, ledger.PostEventInput{
			TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
			EventType: dd.eventType, QuantityDelta: d(dd.qty), CreatedBy: userOp,
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	filter := ledger.HistoryQuery{}
	filter.Filter.SkuID = skuSilla
	filter.Filter.WarehouseID = whMain

	// Página completa como referencia.
	filter.Page, filter.PageSize = 1, 10
	full, err := f.engine.GetTransactionHistory(ctx, tenantA, filter)
	require.NoError(t, err)
	require.Len(t, full.Entries, 5)
	assert.Equal(t, 5, full.Total)

	want := []int64{10, 7, 12, 10, 11}
	for i, e := range full.Entries {
		require.NotNil(t, e.RunningBalance, "con (sku, bodega) fijos toda fila lleva acumulado")
		assert.True(t, e.RunningBalance.Equal(d(want[i])), "fila %d: acumulado %s", i, e.RunningBalance)
	}

	// Pedir la página 2 directamente, sin pasar por la 1: mismos acumulados.
	filter.Page, filter.PageSize = 2, 2
	p2, err := f.engine.GetTransactionHistory(ctx, tenantA, filter)
	require.NoError(t, err)
	require.Len(t, p2.Entries, 2)
	assert.Equal(t, 5, p2.Total)
	assert.True(t, p2.Entries[0].RunningBalance.Equal(d(12)))
	assert.True(t, p2.Entries[1].RunningBalance.Equal(d(10)))
}

func TestGetTransactionHistory_FiltroPorTipoNoRompeElAcumulado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedStock(t, skuSilla, 10)
	time.Sleep(time.Millisecond)
	_, err := f.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID: tenantA, SkuID: skuSilla, WarehouseID: whMain,
		EventType: entity.EventPick, QuantityDelta: d(-3), CreatedBy: userOp,
	})
	require.NoError(t, err)

	q := ledger.HistoryQuery{Page: 1, PageSize: 10}
	q.Filter.SkuID = skuSilla
	q.Filter.WarehouseID = whMain
	q.Filter.EventType = entity.EventPick

	page, err := f.engine.GetTransactionHistory(ctx, tenantA, q)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	// El acumulado se calcula sobre el log completo de la clave, no sobre
	// las filas que pasaron el filtro.
	assert.True(t, page.Entries[0].RunningBalance.Equal(d(7)))
}

func TestGetTransactionHistory_SinClaveFijaNoEmiteAcumulado(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 10)

	q := ledger.HistoryQuery{Page: 1, PageSize: 10}
	q.Filter.SkuID = skuSilla // sin bodega

	page, err := f.engine.GetTransactionHistory(context.Background(), tenantA, q)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Nil(t, page.Entries[0].RunningBalance)
}

func TestGetTransactionHistory_AislamientoPorTenant(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, skuSilla, 10)

	q := ledger.HistoryQuery{Page: 1, PageSize: 10}
	page, err := f.engine.GetTransactionHistory(context.Background(), tenantB, q)
	require.NoError(t, err)
	assert.Empty(t, page.Entries, "el historial de otro tenant debe salir vacío")
	assert.Equal(t, 0, page.Total)
}
