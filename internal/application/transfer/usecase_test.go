package transfer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/application/transfer"
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
	whOrigen = "00000000-0000-0000-0000-0000000000w1"
	whDest   = "00000000-0000-0000-0000-0000000000w2"
	skuSilla = "00000000-0000-0000-0000-0000000000s1"
	userOp   = "00000000-0000-0000-0000-0000000000u1"
)

type fixture struct {
	st *testsupport.Store
	uc *transfer.UseCase
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
	uc := transfer.NewUseCase(
		testsupport.NewTxRunner(st),
		engine,
		testsupport.NewTransferRepo(st),
		testsupport.NewWarehouseRepo(st),
		log,
	)
	st.AddWarehouse(&entity.Warehouse{ID: whOrigen, TenantID: tenantA, Name: "Origen", Code: "BOG-01", IsActive: true})
	st.AddWarehouse(&entity.Warehouse{ID: whDest, TenantID: tenantA, Name: "Destino", Code: "MED-01", IsActive: true})
	st.AddEvent(&entity.StockEvent{
		ID: "seed-1", TenantID: tenantA, SkuID: skuSilla, WarehouseID: whOrigen,
		EventType: entity.EventReceive, QuantityDelta: decimal.NewFromInt(50), CreatedBy: userOp,
	})
	return &fixture{st: st, uc: uc}
}

func (f *fixture) balance(t *testing.T, skuID, warehouseID string) decimal.Decimal {
	t.Helper()
	qty, err := testsupport.NewEventRepo(f.st).SumBalance(tenantA, skuID, warehouseID)
	require.NoError(t, err)
	return qty
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_DescuentaOrigenYNaceEnTransito(t *testing.T) {
	f := newFixture(t)

	order, err := f.uc.Create(context.Background(), tenantA, userOp, whOrigen, whDest, "reposición",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)

	assert.Equal(t, entity.TransferInTransit, order.Status)
	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].QuantityReceived.IsZero())

	assert.True(t, f.balance(t, skuSilla, whOrigen).Equal(d(30)), "50 − 20 en origen")
	assert.True(t, f.balance(t, skuSilla, whDest).IsZero(), "destino no cambia hasta recibir")

	outs := f.st.EventsByType(entity.EventTransferOut)
	require.Len(t, outs, 1)
	assert.Equal(t, order.ID, outs[0].ReferenceID)
}

func TestCreate_SinSaldoNoDejaOrdenNiEventos(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Create(context.Background(), tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(60)}})
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	assert.True(t, f.balance(t, skuSilla, whOrigen).Equal(d(50)), "el saldo de origen no debe moverse")
	assert.Empty(t, f.st.EventsByType(entity.EventTransferOut))

	orders, lerr := f.uc.List(context.Background(), tenantA, "", "", 10, 0)
	require.NoError(t, lerr)
	assert.Empty(t, orders, "la orden no debe persistirse si el posteo falla")
}

func TestCreate_MismaBodegaRechazado(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), tenantA, userOp, whOrigen, whOrigen, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_SinLineasRechazado(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), tenantA, userOp, whOrigen, whDest, "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_ParcialMantieneEnTransito(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)

	got, err := f.uc.Receive(ctx, tenantA, order.ID, userOp,
		[]transfer.ReceiptInput{{LineID: order.Lines[0].ID, Quantity: d(8)}})
	require.NoError(t, err)

	assert.Equal(t, entity.TransferInTransit, got.Status, "recepción parcial no cierra la orden")
	assert.Nil(t, got.ReceivedAt)
	assert.True(t, got.Lines[0].QuantityReceived.Equal(d(8)))
	assert.True(t, f.balance(t, skuSilla, whDest).Equal(d(8)))

	// Segunda recepción acumula sobre lo ya recibido.
	got, err = f.uc.Receive(ctx, tenantA, order.ID, userOp,
		[]transfer.ReceiptInput{{LineID: order.Lines[0].ID, Quantity: d(7)}})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, got.Status)
	assert.True(t, got.Lines[0].QuantityReceived.Equal(d(15)))
	assert.True(t, f.balance(t, skuSilla, whDest).Equal(d(15)))
}

func TestReceive_SinCantidadesRecibeElRestante(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)

	_, err = f.uc.Receive(ctx, tenantA, order.ID, userOp,
		[]transfer.ReceiptInput{{LineID: order.Lines[0].ID, Quantity: d(5)}})
	require.NoError(t, err)

	// receipts vacío ⇒ recibir todo lo pendiente.
	got, err := f.uc.Receive(ctx, tenantA, order.ID, userOp, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.TransferReceived, got.Status)
	require.NotNil(t, got.ReceivedAt)
	assert.True(t, got.Lines[0].QuantityReceived.Equal(d(20)))
	assert.True(t, f.balance(t, skuSilla, whDest).Equal(d(20)))
	assert.True(t, f.balance(t, skuSilla, whOrigen).Equal(d(30)))
}

func TestReceive_ExcederElRestanteRechazado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(10)}})
	require.NoError(t, err)

	_, err = f.uc.Receive(ctx, tenantA, order.ID, userOp,
		[]transfer.ReceiptInput{{LineID: order.Lines[0].ID, Quantity: d(11)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.st.EventsByType(entity.EventTransferIn))
}

func TestReceive_LineaAjenaRechazada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(10)}})
	require.NoError(t, err)

	_, err = f.uc.Receive(ctx, tenantA, order.ID, userOp,
		[]transfer.ReceiptInput{{LineID: "otra-linea", Quantity: d(1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReceive_OrdenYaRecibidaRechazada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(5)}})
	require.NoError(t, err)

	_, err = f.uc.Receive(ctx, tenantA, order.ID, userOp, nil)
	require.NoError(t, err)

	_, err = f.uc.Receive(ctx, tenantA, order.ID, userOp, nil)
	assert.ErrorIs(t, err, domain.ErrStaleAggregateState)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_CompensaConTransferInEnOrigen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)
	require.True(t, f.balance(t, skuSilla, whOrigen).Equal(d(30)))

	got, err := f.uc.Cancel(ctx, tenantA, order.ID, userOp)
	require.NoError(t, err)

	assert.Equal(t, entity.TransferCancelled, got.Status)
	assert.True(t, f.balance(t, skuSilla, whOrigen).Equal(d(50)), "el asiento compensatorio restaura origen")
	assert.True(t, f.balance(t, skuSilla, whDest).IsZero())

	// La historia no se borra: quedan el OUT original y el IN compensatorio.
	assert.Len(t, f.st.EventsByType(entity.EventTransferOut), 1)
	assert.Len(t, f.st.EventsByType(entity.EventTransferIn), 1)
}

func TestCancel_BloqueadaTrasCualquierRecepcion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)

	_, err = f.uc.Receive(ctx, tenantA, order.ID, userOp,
		[]transfer.ReceiptInput{{LineID: order.Lines[0].ID, Quantity: d(1)}})
	require.NoError(t, err)

	_, err = f.uc.Cancel(ctx, tenantA, order.ID, userOp)
	assert.ErrorIs(t, err, domain.ErrStaleAggregateState)
}

func TestCancel_OrdenInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Cancel(context.Background(), tenantA, "no-existe", userOp)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia sobre la misma orden
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_CancelacionesSimultaneasCompensanUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)
	require.True(t, f.balance(t, skuSilla, whOrigen).Equal(d(30)))

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Cancel(ctx, tenantA, order.ID, userOp)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var oks, stale int
	for err := range errs {
		switch {
		case err == nil:
			oks++
		case errors.Is(err, domain.ErrStaleAggregateState):
			stale++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, oks, "solo una cancelación gana")
	assert.Equal(t, 1, stale, "la perdedora relee la orden ya cancelada")
	assert.True(t, f.balance(t, skuSilla, whOrigen).Equal(d(50)), "la compensación entra exactamente una vez")
	assert.Len(t, f.st.EventsByType(entity.EventTransferIn), 1)
}

func TestReceive_RecepcionesSimultaneasNoDuplicanLaEntrada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Receive(ctx, tenantA, order.ID, userOp, nil)
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
	assert.Equal(t, 1, oks, "solo una recepción total gana")
	assert.True(t, f.balance(t, skuSilla, whDest).Equal(d(20)), "el destino recibe las 20 unidades una sola vez")
	assert.Len(t, f.st.EventsByType(entity.EventTransferIn), 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Política de reintento ante conflicto de concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_ConflictoDeConcurrenciaReintentaUnaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)

	// El primer intento pierde el lock de la clave; el reintento automático
	// completa la recepción sin que el caller se entere.
	f.st.FailNextLockAttempts(1)
	got, err := f.uc.Receive(ctx, tenantA, order.ID, userOp, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.TransferReceived, got.Status)
	assert.True(t, f.balance(t, skuSilla, whDest).Equal(d(20)))
	assert.Len(t, f.st.EventsByType(entity.EventTransferIn), 1, "el reintento no duplica la entrada")
}

func TestReceive_ConflictoPersistenteSeRinde(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.uc.Create(ctx, tenantA, userOp, whOrigen, whDest, "",
		[]transfer.LineInput{{SkuID: skuSilla, QuantityRequested: d(20)}})
	require.NoError(t, err)

	// Intento original y único reintento pierden el lock: el error llega al
	// caller y la orden queda intacta para un reintento manual.
	f.st.FailNextLockAttempts(2)
	_, err = f.uc.Receive(ctx, tenantA, order.ID, userOp, nil)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	assert.True(t, f.balance(t, skuSilla, whDest).IsZero())
	assert.Empty(t, f.st.EventsByType(entity.EventTransferIn))
	got, err := f.uc.GetByID(ctx, tenantA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, got.Status)
}
