package transfer

import (
	"context"
	"errors"
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

// UseCase máquina de estados de traslados entre bodegas, compuesta sobre el
// motor de posteo. Cada paso (crear/recibir/cancelar) es su propia
// transacción; entre pasos la orden queda en un estado intermedio bien
// definido (una orden atascada en IN_TRANSIT se recupera reintentando la
// recepción o cancelando).
type UseCase struct {
	txRunner      TxRunner
	engine        *ledger.Engine
	transfers     repository.TransferOrderRepository // atado al pool, lecturas
	warehouseRepo repository.WarehouseRepository
	log           *logger.Logger
}

// NewUseCase construye el caso de uso de traslados.
func NewUseCase(
	txRunner TxRunner,
	engine *ledger.Engine,
	transfers repository.TransferOrderRepository,
	warehouseRepo repository.WarehouseRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		engine:        engine,
		transfers:     transfers,
		warehouseRepo: warehouseRepo,
		log:           log,
	}
}

// LineInput línea solicitada para un traslado.
type LineInput struct {
	SkuID             string
	QuantityRequested decimal.Decimal
}

// Create crea la orden y postea TRANSFER_OUT en origen por cada línea, todo
// en una transacción: si alguna línea no tiene saldo, no queda ni orden ni
// evento. La orden nace IN_TRANSIT (el stock ya salió de origen).
func (uc *UseCase) Create(ctx context.Context, tenantID, createdBy, fromWarehouseID, toWarehouseID, notes string, lines []LineInput) (*entity.TransferOrder, error) {
	if fromWarehouseID == toWarehouseID {
		return nil, fmt.Errorf("%w: bodega origen y destino deben diferir", domain.ErrInvalidInput)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: traslado sin líneas", domain.ErrInvalidInput)
	}
	for _, l := range lines {
		if !l.QuantityRequested.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: cantidad solicitada debe ser positiva", domain.ErrInvalidInput)
		}
	}
	if _, err := uc.checkWarehouse(tenantID, fromWarehouseID); err != nil {
		return nil, err
	}
	if _, err := uc.checkWarehouse(tenantID, toWarehouseID); err != nil {
		return nil, err
	}

	order := &entity.TransferOrder{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		FromWarehouseID: fromWarehouseID,
		ToWarehouseID:   toWarehouseID,
		Status:          entity.TransferInTransit,
		Notes:           notes,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now(),
	}
	for _, l := range lines {
		order.Lines = append(order.Lines, &entity.TransferOrderLine{
			ID:                uuid.New().String(),
			TransferOrderID:   order.ID,
			SkuID:             l.SkuID,
			QuantityRequested: l.QuantityRequested,
			QuantityReceived:  decimal.Zero,
		})
	}

	err := uc.txRunner.RunTransfer(ctx, func(
		events repository.StockEventRepository,
		transfers repository.TransferOrderRepository,
	) error {
		if err := transfers.Create(order); err != nil {
			return err
		}
		for _, l := range order.Lines {
			_, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         l.SkuID,
				WarehouseID:   fromWarehouseID,
				EventType:     entity.EventTransferOut,
				QuantityDelta: l.QuantityRequested.Neg(),
				ReferenceID:   order.ID,
				Notes:         "salida por traslado a " + toWarehouseID,
				CreatedBy:     createdBy,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, l := range order.Lines {
		uc.engine.InvalidateBalance(ctx, tenantID, l.SkuID, fromWarehouseID)
	}
	return order, nil
}

// ReceiptInput cantidad recibida por línea en una recepción (parcial o total).
type ReceiptInput struct {
	LineID   string
	Quantity decimal.Decimal
}

// Receive postea TRANSFER_IN en destino por cada línea recibida. Admite
// parciales: la orden pasa a RECEIVED solo cuando toda línea alcanza su
// cantidad pedida; si no, sigue IN_TRANSIT y se puede volver a recibir.
// Ante ErrConcurrencyConflict reintenta una vez antes de rendirse.
func (uc *UseCase) Receive(ctx context.Context, tenantID, orderID, actorID string, receipts []ReceiptInput) (*entity.TransferOrder, error) {
	order, err := uc.receiveOnce(ctx, tenantID, orderID, actorID, receipts)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		uc.log.Debug().Str("transfer_id", orderID).Msg("recepción con conflicto de concurrencia; reintentando")
		order, err = uc.receiveOnce(ctx, tenantID, orderID, actorID, receipts)
	}
	return order, err
}

func (uc *UseCase) receiveOnce(ctx context.Context, tenantID, orderID, actorID string, receipts []ReceiptInput) (*entity.TransferOrder, error) {
	var order *entity.TransferOrder
	err := uc.txRunner.RunTransfer(ctx, func(
		events repository.StockEventRepository,
		transfers repository.TransferOrderRepository,
	) error {
		// Estado y acumulados se releen con la cabecera bloqueada: una
		// recepción rival que ganó la carrera ya está confirmada cuando esta
		// lectura retorna, así que el restante nunca se valida contra un
		// snapshot viejo.
		var err error
		order, err = transfers.GetByIDForUpdate(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, orderID)
		}
		if order.Status != entity.TransferInTransit {
			return fmt.Errorf("%w: traslado en %s no admite recepción", domain.ErrStaleAggregateState, order.Status)
		}

		toApply := receipts
		// Sin cantidades explícitas se recibe el restante completo de cada línea.
		if len(toApply) == 0 {
			for _, l := range order.Lines {
				remaining := l.QuantityRequested.Sub(l.QuantityReceived)
				if remaining.GreaterThan(decimal.Zero) {
					toApply = append(toApply, ReceiptInput{LineID: l.ID, Quantity: remaining})
				}
			}
		}

		linesByID := make(map[string]*entity.TransferOrderLine, len(order.Lines))
		for _, l := range order.Lines {
			linesByID[l.ID] = l
		}
		for _, r := range toApply {
			line, ok := linesByID[r.LineID]
			if !ok {
				return fmt.Errorf("%w: línea %s no pertenece al traslado", domain.ErrInvalidInput, r.LineID)
			}
			if !r.Quantity.GreaterThan(decimal.Zero) {
				return fmt.Errorf("%w: cantidad recibida debe ser positiva", domain.ErrInvalidInput)
			}
			remaining := line.QuantityRequested.Sub(line.QuantityReceived)
			if r.Quantity.GreaterThan(remaining) {
				return fmt.Errorf("%w: recibir %s excede el restante %s de la línea %s",
					domain.ErrInvalidInput, r.Quantity.String(), remaining.String(), r.LineID)
			}
		}

		for _, r := range toApply {
			line := linesByID[r.LineID]
			if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         line.SkuID,
				WarehouseID:   order.ToWarehouseID,
				EventType:     entity.EventTransferIn,
				QuantityDelta: r.Quantity,
				ReferenceID:   order.ID,
				Notes:         "entrada por traslado desde " + order.FromWarehouseID,
				CreatedBy:     actorID,
			}); err != nil {
				return err
			}
			line.QuantityReceived = line.QuantityReceived.Add(r.Quantity)
			if err := transfers.SetLineReceived(line.ID, line.QuantityReceived); err != nil {
				return err
			}
		}
		if order.FullyReceived() {
			now := time.Now()
			order.Status = entity.TransferReceived
			order.ReceivedAt = &now
			return transfers.Update(order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, l := range order.Lines {
		uc.engine.InvalidateBalance(ctx, tenantID, l.SkuID, order.ToWarehouseID)
	}
	return order, nil
}

// Cancel cancela un traslado aún no recibido. Los TRANSFER_OUT ya posteados
// se revierten con asientos compensatorios TRANSFER_IN sobre la bodega origen
// (nunca borrando historia). Con cualquier recepción registrada la
// cancelación es irreversible y se bloquea.
func (uc *UseCase) Cancel(ctx context.Context, tenantID, orderID, actorID string) (*entity.TransferOrder, error) {
	var order *entity.TransferOrder
	err := uc.txRunner.RunTransfer(ctx, func(
		events repository.StockEventRepository,
		transfers repository.TransferOrderRepository,
	) error {
		// La transición se decide sobre la cabecera bloqueada: dos
		// cancelaciones simultáneas se serializan y la segunda ve CANCELLED,
		// con lo que la compensación se postea exactamente una vez.
		var err error
		order, err = transfers.GetByIDForUpdate(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, orderID)
		}
		if !order.CanTransition(entity.TransferCancelled) {
			return fmt.Errorf("%w: traslado en %s no admite cancelación", domain.ErrStaleAggregateState, order.Status)
		}
		if order.AnyReceived() {
			return fmt.Errorf("%w: traslado con recepciones no puede cancelarse", domain.ErrStaleAggregateState)
		}
		for _, l := range order.Lines {
			if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         l.SkuID,
				WarehouseID:   order.FromWarehouseID,
				EventType:     entity.EventTransferIn,
				QuantityDelta: l.QuantityRequested,
				ReferenceID:   order.ID,
				Notes:         "traslado cancelado; retorno a origen",
				CreatedBy:     actorID,
			}); err != nil {
				return err
			}
		}
		order.Status = entity.TransferCancelled
		return transfers.Update(order)
	})
	if err != nil {
		return nil, err
	}
	for _, l := range order.Lines {
		uc.engine.InvalidateBalance(ctx, tenantID, l.SkuID, order.FromWarehouseID)
	}
	return order, nil
}

// GetByID devuelve el traslado con sus líneas.
func (uc *UseCase) GetByID(ctx context.Context, tenantID, orderID string) (*entity.TransferOrder, error) {
	order, err := uc.transfers.GetByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, orderID)
	}
	return order, nil
}

// List lista traslados del tenant, con filtros opcionales.
func (uc *UseCase) List(ctx context.Context, tenantID, status, warehouseID string, limit, offset int) ([]*entity.TransferOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.transfers.List(tenantID, status, warehouseID, limit, offset)
}

func (uc *UseCase) checkWarehouse(tenantID, warehouseID string) (*entity.Warehouse, error) {
	wh, err := uc.warehouseRepo.GetByID(warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	if wh.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	if !wh.IsActive {
		return nil, fmt.Errorf("%w: bodega %s inactiva", domain.ErrInvalidInput, warehouseID)
	}
	return wh, nil
}
