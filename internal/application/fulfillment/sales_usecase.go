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

// SalesUseCase ciclo de vida de órdenes de venta: crear → asignar (reserva) →
// despachar, o cancelar liberando reservas. Cada paso es su propia
// transacción de negocio sobre el motor de posteo.
type SalesUseCase struct {
	txRunner TxRunner
	engine   *ledger.Engine
	orders   repository.SalesOrderRepository // atado al pool, lecturas
	log      *logger.Logger
}

// NewSalesUseCase construye el caso de uso de ventas.
func NewSalesUseCase(txRunner TxRunner, engine *ledger.Engine, orders repository.SalesOrderRepository, log *logger.Logger) *SalesUseCase {
	return &SalesUseCase{txRunner: txRunner, engine: engine, orders: orders, log: log}
}

// SalesLineInput línea solicitada al crear una orden de venta.
type SalesLineInput struct {
	SkuID     string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateSalesOrder crea la orden en PENDING; no toca el ledger.
func (uc *SalesUseCase) CreateSalesOrder(ctx context.Context, tenantID, createdBy, customerName, orderReference, shippingAddress string, lines []SalesLineInput) (*entity.SalesOrder, error) {
	if customerName == "" || len(lines) == 0 {
		return nil, fmt.Errorf("%w: cliente y líneas son requeridos", domain.ErrInvalidInput)
	}
	for _, l := range lines {
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
		}
	}
	now := time.Now()
	order := &entity.SalesOrder{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		CustomerName:    customerName,
		OrderReference:  orderReference,
		ShippingAddress: shippingAddress,
		Status:          entity.SOPending,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, l := range lines {
		order.Lines = append(order.Lines, &entity.SalesOrderLine{
			ID:           uuid.New().String(),
			SalesOrderID: order.ID,
			SkuID:        l.SkuID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			FulfilledQty: decimal.Zero,
		})
	}
	if err := uc.orders.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// LineShortage faltante de una línea al intentar asignar.
type LineShortage struct {
	SkuID     string          `json:"sku_id"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	Shortage  decimal.Decimal `json:"shortage"`
}

// Allocate reserva stock para la orden en la bodega dada posteando
// RESERVE_OUT por línea; la orden pasa a PROCESSING. Si hay faltantes
// devuelve el reporte sin mutar nada (la orden sigue PENDING y el caller
// decide: esperar stock o cancelar). Un ErrConcurrencyConflict se surface
// inmediato, sin reintento: el faltante lo resuelve un humano, no un retry.
func (uc *SalesUseCase) Allocate(ctx context.Context, tenantID, orderID, warehouseID, actorID string) (*entity.SalesOrder, []LineShortage, error) {
	order, err := uc.getOrder(tenantID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !order.CanTransition(entity.SOProcessing) {
		return nil, nil, fmt.Errorf("%w: orden en %s no admite asignación", domain.ErrStaleAggregateState, order.Status)
	}
	if err := uc.engine.CheckWarehouse(tenantID, warehouseID); err != nil {
		return nil, nil, err
	}

	var shortages []LineShortage
	for _, l := range order.Lines {
		available, err := uc.engine.GetStockLevel(ctx, tenantID, l.SkuID, warehouseID)
		if err != nil {
			return nil, nil, err
		}
		if available.LessThan(l.Quantity) {
			shortages = append(shortages, LineShortage{
				SkuID:     l.SkuID,
				Required:  l.Quantity,
				Available: available,
				Shortage:  l.Quantity.Sub(available),
			})
		}
	}
	if len(shortages) > 0 {
		return nil, shortages, nil
	}

	err = uc.txRunner.RunSales(ctx, func(
		events repository.StockEventRepository,
		orders repository.SalesOrderRepository,
	) error {
		// El estado se relee con la cabecera bloqueada: dos asignaciones
		// simultáneas se serializan y la segunda ve PROCESSING, con lo que la
		// reserva se postea exactamente una vez.
		var err error
		order, err = orders.GetByIDForUpdate(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: orden de venta %s", domain.ErrNotFound, orderID)
		}
		if !order.CanTransition(entity.SOProcessing) {
			return fmt.Errorf("%w: orden en %s no admite asignación", domain.ErrStaleAggregateState, order.Status)
		}
		for _, l := range order.Lines {
			if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         l.SkuID,
				WarehouseID:   warehouseID,
				EventType:     entity.EventReserveOut,
				QuantityDelta: l.Quantity.Neg(),
				ReferenceID:   order.ID,
				Notes:         "reserva para orden de venta",
				CreatedBy:     actorID,
			}); err != nil {
				return err
			}
		}
		order.Status = entity.SOProcessing
		order.WarehouseID = warehouseID
		order.UpdatedAt = time.Now()
		return orders.Update(order)
	})
	if err != nil {
		return nil, nil, err
	}
	for _, l := range order.Lines {
		uc.engine.InvalidateBalance(ctx, tenantID, l.SkuID, warehouseID)
	}
	return order, nil, nil
}

// Ship despacha la orden: por línea libera la reserva (RESERVE_IN) y
// descuenta el físico (SHIP_OUT) en la bodega de asignación; la orden pasa a
// SHIPPED y las líneas quedan despachadas por completo.
func (uc *SalesUseCase) Ship(ctx context.Context, tenantID, orderID, actorID string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := uc.txRunner.RunSales(ctx, func(
		events repository.StockEventRepository,
		orders repository.SalesOrderRepository,
	) error {
		// El estado se relee con la cabecera bloqueada: un despacho o una
		// cancelación rival ya confirmados son visibles aquí y el SHIP_OUT no
		// se duplica.
		var err error
		order, err = orders.GetByIDForUpdate(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: orden de venta %s", domain.ErrNotFound, orderID)
		}
		if order.Status != entity.SOProcessing {
			return fmt.Errorf("%w: orden en %s no admite despacho", domain.ErrStaleAggregateState, order.Status)
		}
		for _, l := range order.Lines {
			if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         l.SkuID,
				WarehouseID:   order.WarehouseID,
				EventType:     entity.EventReserveIn,
				QuantityDelta: l.Quantity,
				ReferenceID:   order.ID,
				Notes:         "liberación de reserva por despacho",
				CreatedBy:     actorID,
			}); err != nil {
				return err
			}
			if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         l.SkuID,
				WarehouseID:   order.WarehouseID,
				EventType:     entity.EventShipOut,
				QuantityDelta: l.Quantity.Neg(),
				ReferenceID:   order.ID,
				Notes:         "despacho de orden de venta",
				CreatedBy:     actorID,
			}); err != nil {
				return err
			}
			l.FulfilledQty = l.Quantity
			if err := orders.SetLineFulfilled(l.ID, l.Quantity); err != nil {
				return err
			}
		}
		order.Status = entity.SOShipped
		order.UpdatedAt = time.Now()
		return orders.Update(order)
	})
	if err != nil {
		return nil, err
	}
	for _, l := range order.Lines {
		uc.engine.InvalidateBalance(ctx, tenantID, l.SkuID, order.WarehouseID)
	}
	return order, nil
}

// CancelSalesOrder cancela desde PENDING o PROCESSING. Si había reservas
// (PROCESSING), las libera con asientos compensatorios RESERVE_IN.
func (uc *SalesUseCase) CancelSalesOrder(ctx context.Context, tenantID, orderID, actorID string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	var wasProcessing bool
	err := uc.txRunner.RunSales(ctx, func(
		events repository.StockEventRepository,
		orders repository.SalesOrderRepository,
	) error {
		// La transición y el "hubo reservas" se deciden sobre la cabecera
		// bloqueada: dos cancelaciones simultáneas se serializan y la reserva
		// se libera exactamente una vez.
		var err error
		order, err = orders.GetByIDForUpdate(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: orden de venta %s", domain.ErrNotFound, orderID)
		}
		if !order.CanTransition(entity.SOCancelled) {
			return fmt.Errorf("%w: orden en %s no admite cancelación", domain.ErrStaleAggregateState, order.Status)
		}
		wasProcessing = order.Status == entity.SOProcessing
		if wasProcessing {
			for _, l := range order.Lines {
				if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
					TenantID:      tenantID,
					SkuID:         l.SkuID,
					WarehouseID:   order.WarehouseID,
					EventType:     entity.EventReserveIn,
					QuantityDelta: l.Quantity,
					ReferenceID:   order.ID,
					Notes:         "orden cancelada; reserva liberada",
					CreatedBy:     actorID,
				}); err != nil {
					return err
				}
			}
		}
		order.Status = entity.SOCancelled
		order.UpdatedAt = time.Now()
		return orders.Update(order)
	})
	if err != nil {
		return nil, err
	}
	if wasProcessing {
		for _, l := range order.Lines {
			uc.engine.InvalidateBalance(ctx, tenantID, l.SkuID, order.WarehouseID)
		}
	}
	return order, nil
}

// GetSalesOrder devuelve la orden con sus líneas.
func (uc *SalesUseCase) GetSalesOrder(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error) {
	return uc.getOrder(tenantID, orderID)
}

// ListSalesOrders lista órdenes de venta del tenant.
func (uc *SalesUseCase) ListSalesOrders(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.SalesOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.orders.List(tenantID, status, limit, offset)
}

func (uc *SalesUseCase) getOrder(tenantID, orderID string) (*entity.SalesOrder, error) {
	order, err := uc.orders.GetByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: orden de venta %s", domain.ErrNotFound, orderID)
	}
	return order, nil
}
