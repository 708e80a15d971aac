package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
	"github.com/nexus-ims/nexus-api/pkg/logger"
)

// Engine motor de posteo del stock ledger. Agrega eventos validando el
// invariante de saldo no negativo de forma atómica respecto a posteos
// concurrentes sobre la misma clave (tenant, sku, bodega). La serialización
// por clave vive en el repositorio (LockKey); claves distintas no se bloquean.
type Engine struct {
	txRunner      TxRunner
	events        repository.StockEventRepository // atado al pool, solo lecturas
	cache         BalanceCache
	warehouseRepo repository.WarehouseRepository
	log           *logger.Logger
}

// NewEngine construye el motor de posteo.
func NewEngine(
	txRunner TxRunner,
	events repository.StockEventRepository,
	cache BalanceCache,
	warehouseRepo repository.WarehouseRepository,
	log *logger.Logger,
) *Engine {
	return &Engine{
		txRunner:      txRunner,
		events:        events,
		cache:         cache,
		warehouseRepo: warehouseRepo,
		log:           log,
	}
}

// PostEventInput entrada para postear un evento al ledger.
type PostEventInput struct {
	TenantID      string
	SkuID         string
	WarehouseID   string
	EventType     string
	QuantityDelta decimal.Decimal
	ReferenceID   string
	ReasonCode    string
	Notes         string
	CreatedBy     string
}

// PostEvent valida y agrega un evento en su propia transacción:
// lock por clave → saldo actual por suma del log → verificación de no
// negatividad → insert. Al commit invalida la entrada de cache (best-effort:
// un fallo de invalidación no falla el posteo; la cache sirve dato viejo
// hasta vencer el TTL).
func (e *Engine) PostEvent(ctx context.Context, in PostEventInput) (*entity.StockEvent, error) {
	if err := e.CheckWarehouse(in.TenantID, in.WarehouseID); err != nil {
		return nil, err
	}
	var ev *entity.StockEvent
	err := e.txRunner.Run(ctx, func(events repository.StockEventRepository) error {
		var err error
		ev, err = e.PostEventTx(events, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.InvalidateBalance(ctx, in.TenantID, in.SkuID, in.WarehouseID)
	return ev, nil
}

// PostEventTx valida y agrega el evento usando el repositorio atado a la
// transacción del caller. Lo usan los adaptadores (traslados, ensamble,
// órdenes) que componen varios posteos en una sola transacción de negocio;
// el caller es responsable de invalidar la cache después del commit.
func (e *Engine) PostEventTx(events repository.StockEventRepository, in PostEventInput) (*entity.StockEvent, error) {
	sign, ok := entity.EventSign(in.EventType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidEventType, in.EventType)
	}
	if in.QuantityDelta.IsZero() {
		return nil, fmt.Errorf("%w: delta cero", domain.ErrInvalidQuantitySign)
	}
	if sign > 0 && !in.QuantityDelta.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s requiere delta positivo", domain.ErrInvalidQuantitySign, in.EventType)
	}
	if sign < 0 && !in.QuantityDelta.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s requiere delta negativo", domain.ErrInvalidQuantitySign, in.EventType)
	}
	if in.EventType == entity.EventAdjust && in.ReasonCode == "" {
		return nil, fmt.Errorf("%w: ADJUST requiere reason_code", domain.ErrInvalidInput)
	}

	// Serializa la clave: el check de saldo y el insert son atómicos frente a
	// posteos concurrentes de la misma (tenant, sku, bodega).
	if err := events.LockKey(in.TenantID, in.SkuID, in.WarehouseID); err != nil {
		return nil, err
	}
	balance, err := events.SumBalance(in.TenantID, in.SkuID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	newBalance := balance.Add(in.QuantityDelta)
	if newBalance.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: saldo %s, delta %s", domain.ErrOutOfStock,
			balance.String(), in.QuantityDelta.String())
	}

	ev := &entity.StockEvent{
		ID:            uuid.New().String(),
		TenantID:      in.TenantID,
		SkuID:         in.SkuID,
		WarehouseID:   in.WarehouseID,
		EventType:     in.EventType,
		QuantityDelta: in.QuantityDelta,
		ReferenceID:   in.ReferenceID,
		ReasonCode:    in.ReasonCode,
		Notes:         in.Notes,
		CreatedAt:     time.Now(),
		CreatedBy:     in.CreatedBy,
	}
	if err := events.Create(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// PostCycleCount registra un conteo cíclico: el delta es la diferencia entre
// lo contado y el saldo actual, calculada dentro del mismo lock que el insert
// para que ningún posteo concurrente se cuele entre la lectura y el asiento.
// Un conteo que coincide con el saldo igual genera evento (delta cero) como
// constancia de auditoría.
func (e *Engine) PostCycleCount(ctx context.Context, tenantID, skuID, warehouseID string, countedQty decimal.Decimal, notes, createdBy string) (*entity.StockEvent, error) {
	if countedQty.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: cantidad contada negativa", domain.ErrInvalidInput)
	}
	if err := e.CheckWarehouse(tenantID, warehouseID); err != nil {
		return nil, err
	}
	var ev *entity.StockEvent
	err := e.txRunner.Run(ctx, func(events repository.StockEventRepository) error {
		if err := events.LockKey(tenantID, skuID, warehouseID); err != nil {
			return err
		}
		balance, err := events.SumBalance(tenantID, skuID, warehouseID)
		if err != nil {
			return err
		}
		ev = &entity.StockEvent{
			ID:            uuid.New().String(),
			TenantID:      tenantID,
			SkuID:         skuID,
			WarehouseID:   warehouseID,
			EventType:     entity.EventCycleCount,
			QuantityDelta: countedQty.Sub(balance),
			Notes:         notes,
			CreatedAt:     time.Now(),
			CreatedBy:     createdBy,
		}
		return events.Create(ev)
	})
	if err != nil {
		return nil, err
	}
	e.InvalidateBalance(ctx, tenantID, skuID, warehouseID)
	return ev, nil
}

// InvalidateBalance borra la entrada de cache de la clave. Best-effort: un
// fallo queda en el log y la cache expira sola por TTL.
func (e *Engine) InvalidateBalance(ctx context.Context, tenantID, skuID, warehouseID string) {
	if err := e.cache.Invalidate(ctx, tenantID, skuID, warehouseID); err != nil {
		e.log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("sku_id", skuID).
			Str("warehouse_id", warehouseID).
			Msg("invalidación de cache de saldo falló; expira por TTL")
	}
}

// CheckWarehouse valida que la bodega exista, pertenezca al tenant y esté
// activa. Una referencia cruzada entre tenants se registra como evento de
// seguridad y es fatal (nunca se reintenta).
func (e *Engine) CheckWarehouse(tenantID, warehouseID string) error {
	wh, err := e.warehouseRepo.GetByID(warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	if wh.TenantID != tenantID {
		e.log.Warn().
			Str("tenant_id", tenantID).
			Str("warehouse_id", warehouseID).
			Str("warehouse_tenant_id", wh.TenantID).
			Msg("intento de posteo con bodega de otro tenant")
		return domain.ErrTenantMismatch
	}
	if !wh.IsActive {
		return fmt.Errorf("%w: bodega %s inactiva", domain.ErrInvalidInput, warehouseID)
	}
	return nil
}
