package assembly_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-ims/nexus-api/internal/application/assembly"
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
	whTaller   = "00000000-0000-0000-0000-0000000000w1"
	skuMesa    = "00000000-0000-0000-0000-0000000000s1" // terminado
	skuPata    = "00000000-0000-0000-0000-0000000000s2"
	skuTablero = "00000000-0000-0000-0000-0000000000s3"
	userOp     = "00000000-0000-0000-0000-0000000000u1"
)

type fixture struct {
	st *testsupport.Store
	uc *assembly.UseCase
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
	uc := assembly.NewUseCase(
		testsupport.NewTxRunner(st),
		engine,
		testsupport.NewBOMRepo(st),
		testsupport.NewAssemblyRepo(st),
		testsupport.NewSKURepo(st),
		log,
	)
	st.AddWarehouse(&entity.Warehouse{ID: whTaller, TenantID: tenantA, Name: "Taller", Code: "TLL", IsActive: true})
	costPata := decimal.RequireFromString("3.50")
	costTablero := decimal.RequireFromString("12.00")
	st.AddSKU(&entity.SKU{ID: skuMesa, TenantID: tenantA, Code: "MESA-01", Name: "Mesa"})
	st.AddSKU(&entity.SKU{ID: skuPata, TenantID: tenantA, Code: "PATA-01", Name: "Pata", UnitCost: &costPata})
	st.AddSKU(&entity.SKU{ID: skuTablero, TenantID: tenantA, Code: "TAB-01", Name: "Tablero", UnitCost: &costTablero})
	return &fixture{st: st, uc: uc}
}

func (f *fixture) seedStock(skuID string, qty int64) {
	f.st.AddEvent(&entity.StockEvent{
		ID: "seed-" + skuID, TenantID: tenantA, SkuID: skuID, WarehouseID: whTaller,
		EventType: entity.EventReceive, QuantityDelta: decimal.NewFromInt(qty), CreatedBy: userOp,
	})
}

func (f *fixture) balance(t *testing.T, skuID string) decimal.Decimal {
	t.Helper()
	qty, err := testsupport.NewEventRepo(f.st).SumBalance(tenantA, skuID, whTaller)
	require.NoError(t, err)
	return qty
}

// createMesaBOM BOM de mesa: 4 patas + 1 tablero, landed cost 2.00.
func (f *fixture) createMesaBOM(t *testing.T) *entity.BOM {
	t.Helper()
	bom, err := f.uc.CreateBOM(context.Background(), tenantA, userOp, skuMesa,
		[]assembly.BOMLineInput{
			{ComponentSkuID: skuPata, Quantity: decimal.NewFromInt(4), Unit: "un"},
			{ComponentSkuID: skuTablero, Quantity: decimal.NewFromInt(1), Unit: "un"},
		},
		decimal.RequireFromString("2.00"), "flete promedio")
	require.NoError(t, err)
	return bom
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// ──────────────────────────────────────────────────────────────────────────────
// Versionado de BOM
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateBOM_PrimeraVersionActiva(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)

	assert.Equal(t, 1, bom.Version)
	assert.True(t, bom.IsActive)
	assert.Len(t, bom.Lines, 2)
}

func TestCreateBOM_NuevaVersionDesactivaLaAnterior(t *testing.T) {
	f := newFixture(t)
	v1 := f.createMesaBOM(t)

	v2, err := f.uc.CreateBOM(context.Background(), tenantA, userOp, skuMesa,
		[]assembly.BOMLineInput{{ComponentSkuID: skuPata, Quantity: d(3), Unit: "un"}},
		decimal.Zero, "")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.True(t, v2.IsActive)

	// La v1 sigue consultable pero ya no es la vigente.
	old, err := f.uc.GetBOM(context.Background(), tenantA, v1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)

	versions, err := f.uc.ListBOMVersions(context.Background(), tenantA, skuMesa)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version, "versiones ordenadas descendente")
}

func TestCreateBOM_AutoReferenciaRechazada(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateBOM(context.Background(), tenantA, userOp, skuMesa,
		[]assembly.BOMLineInput{{ComponentSkuID: skuMesa, Quantity: d(1)}},
		decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateBOM_SkuTerminadoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateBOM(context.Background(), tenantA, userOp, "no-existe",
		[]assembly.BOMLineInput{{ComponentSkuID: skuPata, Quantity: d(1)}},
		decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Disponibilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckAvailability_ReportaFaltantesPorComponente(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 10)  // para 5 mesas hacen falta 20
	f.seedStock(skuTablero, 5)

	report, err := f.uc.CheckAvailability(context.Background(), tenantA, bom.ID, whTaller, d(5))
	require.NoError(t, err)

	assert.False(t, report.IsAvailable)
	require.Contains(t, report.Shortages, skuPata)
	short := report.Shortages[skuPata]
	assert.True(t, short.Required.Equal(d(20)))
	assert.True(t, short.Available.Equal(d(10)))
	assert.True(t, short.Shortage.Equal(d(10)))
	assert.NotContains(t, report.Shortages, skuTablero, "el tablero alcanza")
}

func TestCheckAvailability_NoConsumeNada(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 40)
	f.seedStock(skuTablero, 10)

	report, err := f.uc.CheckAvailability(context.Background(), tenantA, bom.ID, whTaller, d(5))
	require.NoError(t, err)
	assert.True(t, report.IsAvailable)
	assert.Empty(t, report.Shortages)
	assert.True(t, f.balance(t, skuPata).Equal(d(40)), "la consulta es lectura pura")
}

// ──────────────────────────────────────────────────────────────────────────────
// Iniciar ensamble
// ──────────────────────────────────────────────────────────────────────────────

func TestStart_ConsumeComponentesYQuedaEnProgreso(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 20) // justo para 5 mesas
	f.seedStock(skuTablero, 5)

	order, err := f.uc.Start(context.Background(), tenantA, userOp, bom.ID, whTaller, d(5))
	require.NoError(t, err)

	assert.Equal(t, entity.AssemblyInProgress, order.Status)
	assert.Equal(t, bom.Version, order.BOMVersion)
	assert.True(t, f.balance(t, skuPata).IsZero(), "consumo exacto deja el componente en cero")
	assert.True(t, f.balance(t, skuTablero).IsZero())
	assert.Len(t, f.st.EventsByType(entity.EventAssembleOut), 2)
}

func TestStart_SinStockNoDejaOrdenNiEventos(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 3) // insuficiente incluso para una mesa

	_, err := f.uc.Start(context.Background(), tenantA, userOp, bom.ID, whTaller, d(1))
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	assert.Empty(t, f.st.EventsByType(entity.EventAssembleOut))
	orders, lerr := f.uc.List(context.Background(), tenantA, "", 10, 0)
	require.NoError(t, lerr)
	assert.Empty(t, orders)
	assert.True(t, f.balance(t, skuPata).Equal(d(3)))
}

func TestStart_BOMInactivaRechazada(t *testing.T) {
	f := newFixture(t)
	v1 := f.createMesaBOM(t)
	// Publicar v2 deja v1 inactiva.
	_, err := f.uc.CreateBOM(context.Background(), tenantA, userOp, skuMesa,
		[]assembly.BOMLineInput{{ComponentSkuID: skuPata, Quantity: d(1)}},
		decimal.Zero, "")
	require.NoError(t, err)

	f.seedStock(skuPata, 100)
	f.seedStock(skuTablero, 100)

	_, err = f.uc.Start(context.Background(), tenantA, userOp, v1.ID, whTaller, d(1))
	assert.ErrorIs(t, err, domain.ErrStaleAggregateState)
}

// ──────────────────────────────────────────────────────────────────────────────
// Completar y cancelar
// ──────────────────────────────────────────────────────────────────────────────

func TestComplete_ProduceTerminadoConCOGS(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 20)
	f.seedStock(skuTablero, 5)
	ctx := context.Background()

	order, err := f.uc.Start(ctx, tenantA, userOp, bom.ID, whTaller, d(5))
	require.NoError(t, err)

	got, err := f.uc.Complete(ctx, tenantA, order.ID, userOp, d(4), d(1), "tablero rajado")
	require.NoError(t, err)

	assert.Equal(t, entity.AssemblyComplete, got.Status)
	require.NotNil(t, got.ProducedQty)
	assert.True(t, got.ProducedQty.Equal(d(4)))
	require.NotNil(t, got.WasteQty)
	assert.True(t, got.WasteQty.Equal(d(1)))
	require.NotNil(t, got.CompletedAt)

	// COGS = landed(2.00) + 4×3.50 + 1×12.00 = 28.00 por unidad.
	require.NotNil(t, got.CogsPerUnit)
	assert.True(t, got.CogsPerUnit.Equal(decimal.RequireFromString("28.00")),
		"COGS calculado: %s", got.CogsPerUnit)

	assert.True(t, f.balance(t, skuMesa).Equal(d(4)), "entra lo producido, no lo planificado")
	assert.Len(t, f.st.EventsByType(entity.EventAssembleIn), 1)
}

func TestComplete_CantidadesInvalidas(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 20)
	f.seedStock(skuTablero, 5)
	ctx := context.Background()
	order, err := f.uc.Start(ctx, tenantA, userOp, bom.ID, whTaller, d(5))
	require.NoError(t, err)

	_, err = f.uc.Complete(ctx, tenantA, order.ID, userOp, decimal.Zero, decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Complete(ctx, tenantA, order.ID, userOp, d(1), d(-1), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestComplete_DobleCompletadoRechazado(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 20)
	f.seedStock(skuTablero, 5)
	ctx := context.Background()
	order, err := f.uc.Start(ctx, tenantA, userOp, bom.ID, whTaller, d(5))
	require.NoError(t, err)

	_, err = f.uc.Complete(ctx, tenantA, order.ID, userOp, d(5), decimal.Zero, "")
	require.NoError(t, err)

	_, err = f.uc.Complete(ctx, tenantA, order.ID, userOp, d(5), decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrStaleAggregateState)
}

func TestCancel_NoDevuelveComponentes(t *testing.T) {
	f := newFixture(t)
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 20)
	f.seedStock(skuTablero, 5)
	ctx := context.Background()
	order, err := f.uc.Start(ctx, tenantA, userOp, bom.ID, whTaller, d(5))
	require.NoError(t, err)
	require.True(t, f.balance(t, skuPata).IsZero())

	got, err := f.uc.Cancel(ctx, tenantA, order.ID, userOp, "cliente desistió")
	require.NoError(t, err)

	assert.Equal(t, entity.AssemblyCancelled, got.Status)
	assert.Equal(t, "cliente desistió", got.WasteReason)
	// Los componentes consumidos quedan como merma; no hay asientos de retorno.
	assert.True(t, f.balance(t, skuPata).IsZero())
	assert.Len(t, f.st.EventsByType(entity.EventAssembleOut), 2)
	assert.Empty(t, f.st.EventsByType(entity.EventAssembleIn))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia sobre la misma orden y receta
// ──────────────────────────────────────────────────────────────────────────────

func TestComplete_CompletadosSimultaneosProducenUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bom := f.createMesaBOM(t)
	f.seedStock(skuPata, 20)
	f.seedStock(skuTablero, 5)
	order, err := f.uc.Start(ctx, tenantA, userOp, bom.ID, whTaller, d(5))
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Complete(ctx, tenantA, order.ID, userOp, d(5), decimal.Zero, "")
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
			assert.ErrorIs(t, err, domain.ErrStaleAggregateState)
		}
	}
	assert.Equal(t, 1, oks, "solo un completado gana")
	assert.True(t, f.balance(t, skuMesa).Equal(d(5)), "la producción entra exactamente una vez")
	assert.Len(t, f.st.EventsByType(entity.EventAssembleIn), 1)
}

func TestCreateBOM_CreacionesSimultaneasVersionanEnSerie(t *testing.T) {
	f := newFixture(t)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.CreateBOM(context.Background(), tenantA, userOp, skuMesa,
				[]assembly.BOMLineInput{{ComponentSkuID: skuPata, Quantity: d(4), Unit: "un"}},
				decimal.Zero, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// La versión se asigna con la receta activa bloqueada: las dos creaciones
	// se serializan en 1 y 2, y solo la última queda activa.
	versions, err := f.uc.ListBOMVersions(context.Background(), tenantA, skuMesa)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)
	assert.True(t, versions[0].IsActive)
	assert.False(t, versions[1].IsActive)
}
