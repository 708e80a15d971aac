package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
	"github.com/nexus-ims/nexus-api/pkg/logger"
)

// PurchaseUseCase ciclo de vida de órdenes de compra: borrador → ordenada →
// recepción por línea (parcial o total) → recibida; o cancelada mientras
// nada se haya recibido.
type PurchaseUseCase struct {
	txRunner TxRunner
	engine   *ledger.Engine
	orders   repository.PurchaseOrderRepository // atado al pool, lecturas
	log      *logger.Logger
}

// NewPurchaseUseCase construye el caso de uso de compras.
func NewPurchaseUseCase(txRunner TxRunner, engine *ledger.Engine, orders repository.PurchaseOrderRepository, log *logger.Logger) *PurchaseUseCase {
	return &PurchaseUseCase{txRunner: txRunner, engine: engine, orders: orders, log: log}
}

// PurchaseLineInput línea al crear una orden de compra.
type PurchaseLineInput struct {
	SkuID           string
	QuantityOrdered decimal.Decimal
	UnitCost        decimal.Decimal
}

// CreatePurchaseOrder crea la orden en DRAFT con sus líneas.
func (uc *PurchaseUseCase) CreatePurchaseOrder(ctx context.Context, tenantID, createdBy, supplierName, warehouseID, notes string, lines []PurchaseLineInput) (*entity.PurchaseOrder, error) {
	if supplierName == "" || warehouseID == "" || len(lines) == 0 {
		return nil, fmt.Errorf("%w: proveedor, bodega y líneas son requeridos", domain.ErrInvalidInput)
	}
	for _, l := range lines {
		if !l.QuantityOrdered.GreaterThan(decimal.Zero) || l.UnitCost.LessThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: cantidad u costo de línea inválido", domain.ErrInvalidInput)
		}
	}
	if err := uc.engine.CheckWarehouse(tenantID, warehouseID); err != nil {
		return nil, err
	}
	now := time.Now()
	po := &entity.PurchaseOrder{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		SupplierName: supplierName,
		WarehouseID:  warehouseID,
		Status:       entity.PODraft,
		Notes:        notes,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, l := range lines {
		po.Lines = append(po.Lines, &entity.PurchaseOrderLine{
			ID:               uuid.New().String(),
			PurchaseOrderID:  po.ID,
			SkuID:            l.SkuID,
			QuantityOrdered:  l.QuantityOrdered,
			QuantityReceived: decimal.Zero,
			UnitCost:         l.UnitCost,
		})
	}
	if err := uc.orders.Create(po); err != nil {
		return nil, err
	}
	return po, nil
}

// MarkOrdered pasa la orden de DRAFT a ORDERED (enviada al proveedor).
func (uc *PurchaseUseCase) MarkOrdered(ctx context.Context, tenantID, poID string) (*entity.PurchaseOrder, error) {
	po, err := uc.getOrder(tenantID, poID)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.PODraft {
		return nil, fmt.Errorf("%w: orden en %s no admite marcar como ordenada", domain.ErrStaleAggregateState, po.Status)
	}
	po.Status = entity.POOrdered
	po.UpdatedAt = time.Now()
	if err := uc.orders.Update(po); err != nil {
		return nil, err
	}
	return po, nil
}

// ReceiptLineInput cantidad recibida para una línea de la orden.
type ReceiptLineInput struct {
	LineID   string
	Quantity decimal.Decimal
}

// Receive recibe parcial o totalmente: postea RECEIVE por línea recibida y
// recalcula el estado (RECEIVED si todo llegó, PARTIAL si algo, ORDERED si
// nada). Recibir más que el restante de una línea se rechaza.
func (uc *PurchaseUseCase) Receive(ctx context.Context, tenantID, poID, actorID string, receipts []ReceiptLineInput) (*entity.PurchaseOrder, error) {
	if len(receipts) == 0 {
		return nil, fmt.Errorf("%w: recepción sin líneas", domain.ErrInvalidInput)
	}
	var po *entity.PurchaseOrder
	err := uc.txRunner.RunPurchase(ctx, func(
		events repository.StockEventRepository,
		orders repository.PurchaseOrderRepository,
	) error {
		// Estado y restantes por línea se releen con la cabecera bloqueada:
		// recepciones simultáneas se serializan y el total recibido nunca
		// excede lo ordenado.
		var err error
		po, err = orders.GetByIDForUpdate(tenantID, poID)
		if err != nil {
			return err
		}
		if po == nil {
			return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, poID)
		}
		if po.Status == entity.POReceived || po.Status == entity.POCancelled {
			return fmt.Errorf("%w: orden en %s no admite recepción", domain.ErrStaleAggregateState, po.Status)
		}

		linesByID := make(map[string]*entity.PurchaseOrderLine, len(po.Lines))
		for _, l := range po.Lines {
			linesByID[l.ID] = l
		}
		for _, r := range receipts {
			line, ok := linesByID[r.LineID]
			if !ok {
				return fmt.Errorf("%w: línea %s no pertenece a la orden", domain.ErrInvalidInput, r.LineID)
			}
			if !r.Quantity.GreaterThan(decimal.Zero) {
				return fmt.Errorf("%w: cantidad recibida debe ser positiva", domain.ErrInvalidInput)
			}
			remaining := line.QuantityOrdered.Sub(line.QuantityReceived)
			if r.Quantity.GreaterThan(remaining) {
				return fmt.Errorf("%w: recibir %s excede el restante %s de la línea %s",
					domain.ErrInvalidInput, r.Quantity.String(), remaining.String(), r.LineID)
			}
		}

		for _, r := range receipts {
			line := linesByID[r.LineID]
			if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         line.SkuID,
				WarehouseID:   po.WarehouseID,
				EventType:     entity.EventReceive,
				QuantityDelta: r.Quantity,
				ReferenceID:   po.ID,
				Notes:         "recepción de compra: " + po.SupplierName,
				CreatedBy:     actorID,
			}); err != nil {
				return err
			}
			line.QuantityReceived = line.QuantityReceived.Add(r.Quantity)
			if err := orders.SetLineReceived(line.ID, line.QuantityReceived); err != nil {
				return err
			}
		}
		switch {
		case po.FullyReceived():
			po.Status = entity.POReceived
		case po.AnyReceived():
			po.Status = entity.POPartial
		default:
			po.Status = entity.POOrdered
		}
		po.UpdatedAt = time.Now()
		return orders.Update(po)
	})
	if err != nil {
		return nil, err
	}
	for _, l := range po.Lines {
		uc.engine.InvalidateBalance(ctx, tenantID, l.SkuID, po.WarehouseID)
	}
	return po, nil
}

// CancelPurchaseOrder cancela solo en DRAFT u ORDERED y sin recepciones:
// una vez entró stock, la orden ya movió el ledger y no se cancela (se
// ajusta con ADJUST si hace falta).
func (uc *PurchaseUseCase) CancelPurchaseOrder(ctx context.Context, tenantID, poID string) (*entity.PurchaseOrder, error) {
	var po *entity.PurchaseOrder
	err := uc.txRunner.RunPurchase(ctx, func(
		_ repository.StockEventRepository,
		orders repository.PurchaseOrderRepository,
	) error {
		// Cancelar compite con Receive por la misma cabecera: con la fila
		// bloqueada, una recepción confirmada entre la intención y el commit
		// ya es visible aquí y bloquea la cancelación.
		var err error
		po, err = orders.GetByIDForUpdate(tenantID, poID)
		if err != nil {
			return err
		}
		if po == nil {
			return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, poID)
		}
		if po.Status != entity.PODraft && po.Status != entity.POOrdered {
			return fmt.Errorf("%w: orden en %s no admite cancelación", domain.ErrStaleAggregateState, po.Status)
		}
		if po.AnyReceived() {
			return fmt.Errorf("%w: orden con recepciones no puede cancelarse", domain.ErrStaleAggregateState)
		}
		po.Status = entity.POCancelled
		po.UpdatedAt = time.Now()
		return orders.Update(po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// GetPurchaseOrder devuelve la orden con sus líneas.
func (uc *PurchaseUseCase) GetPurchaseOrder(ctx context.Context, tenantID, poID string) (*entity.PurchaseOrder, error) {
	return uc.getOrder(tenantID, poID)
}

// ListPurchaseOrders lista paginada de órdenes de compra.
func (uc *PurchaseUseCase) ListPurchaseOrders(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.orders.List(tenantID, status, limit, offset)
}

func (uc *PurchaseUseCase) getOrder(tenantID, poID string) (*entity.PurchaseOrder, error) {
	po, err := uc.orders.GetByID(tenantID, poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, poID)
	}
	return po, nil
}
