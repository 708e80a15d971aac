package scanner

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
	"github.com/nexus-ims/nexus-api/pkg/logger"
)

// UseCase flujo de escáner de bodega: resuelve un código de barras al SKU del
// tenant y postea el movimiento correspondiente. Es una fachada delgada sobre
// el motor de posteo; toda la validación de saldo vive allá.
type UseCase struct {
	engine  *ledger.Engine
	skuRepo repository.SKURepository
	log     *logger.Logger
}

// NewUseCase construye el caso de uso de escáner.
func NewUseCase(engine *ledger.Engine, skuRepo repository.SKURepository, log *logger.Logger) *UseCase {
	return &UseCase{engine: engine, skuRepo: skuRepo, log: log}
}

// LookupResult SKU resuelto por código de barras con su saldo en la bodega.
type LookupResult struct {
	Sku     *entity.SKU
	Balance decimal.Decimal
}

// Lookup resuelve el código de barras dentro del tenant y devuelve el SKU con
// su saldo actual en la bodega indicada.
func (uc *UseCase) Lookup(ctx context.Context, tenantID, barcode, warehouseID string) (*LookupResult, error) {
	sku, err := uc.resolve(tenantID, barcode)
	if err != nil {
		return nil, err
	}
	balance, err := uc.engine.GetStockLevel(ctx, tenantID, sku.ID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &LookupResult{Sku: sku, Balance: balance}, nil
}

// ScanReceive recepción por escaneo: postea RECEIVE por la cantidad.
func (uc *UseCase) ScanReceive(ctx context.Context, tenantID, barcode, warehouseID string, quantity decimal.Decimal, referenceID, actorID string) (*entity.StockEvent, error) {
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	sku, err := uc.resolve(tenantID, barcode)
	if err != nil {
		return nil, err
	}
	return uc.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID:      tenantID,
		SkuID:         sku.ID,
		WarehouseID:   warehouseID,
		EventType:     entity.EventReceive,
		QuantityDelta: quantity,
		ReferenceID:   referenceID,
		Notes:         "recepción por escáner",
		CreatedBy:     actorID,
	})
}

// ScanPick picking por escaneo: postea PICK por la cantidad. Si el saldo no
// alcanza, el motor devuelve ErrOutOfStock y nada se mueve.
func (uc *UseCase) ScanPick(ctx context.Context, tenantID, barcode, warehouseID string, quantity decimal.Decimal, referenceID, actorID string) (*entity.StockEvent, error) {
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	sku, err := uc.resolve(tenantID, barcode)
	if err != nil {
		return nil, err
	}
	return uc.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID:      tenantID,
		SkuID:         sku.ID,
		WarehouseID:   warehouseID,
		EventType:     entity.EventPick,
		QuantityDelta: quantity.Neg(),
		ReferenceID:   referenceID,
		Notes:         "picking por escáner",
		CreatedBy:     actorID,
	})
}

// ScanAdjust ajuste manual por escaneo: el delta puede ser de cualquier signo
// pero requiere un código de motivo auditable.
func (uc *UseCase) ScanAdjust(ctx context.Context, tenantID, barcode, warehouseID string, delta decimal.Decimal, reasonCode, notes, actorID string) (*entity.StockEvent, error) {
	sku, err := uc.resolve(tenantID, barcode)
	if err != nil {
		return nil, err
	}
	return uc.engine.PostEvent(ctx, ledger.PostEventInput{
		TenantID:      tenantID,
		SkuID:         sku.ID,
		WarehouseID:   warehouseID,
		EventType:     entity.EventAdjust,
		QuantityDelta: delta,
		ReasonCode:    reasonCode,
		Notes:         notes,
		CreatedBy:     actorID,
	})
}

func (uc *UseCase) resolve(tenantID, barcode string) (*entity.SKU, error) {
	if barcode == "" {
		return nil, fmt.Errorf("%w: código de barras vacío", domain.ErrInvalidInput)
	}
	sku, err := uc.skuRepo.GetByCode(tenantID, barcode)
	if err != nil {
		return nil, err
	}
	if sku == nil {
		return nil, fmt.Errorf("%w: código %s no registrado", domain.ErrNotFound, barcode)
	}
	if sku.IsArchived {
		return nil, fmt.Errorf("%w: SKU %s archivado", domain.ErrInvalidInput, sku.Code)
	}
	return sku, nil
}
