package assembly

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
	"github.com/nexus-ims/nexus-api/pkg/logger"
)

// UseCase ensamble por BOM: versionado de recetas, verificación de
// disponibilidad, consumo de componentes y producción con COGS.
type UseCase struct {
	txRunner TxRunner
	engine   *ledger.Engine
	boms     repository.BOMRepository           // atado al pool, lecturas
	orders   repository.AssemblyOrderRepository // ídem
	skuRepo  repository.SKURepository
	log      *logger.Logger
}

// NewUseCase construye el caso de uso de ensamble.
func NewUseCase(
	txRunner TxRunner,
	engine *ledger.Engine,
	boms repository.BOMRepository,
	orders repository.AssemblyOrderRepository,
	skuRepo repository.SKURepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		engine:   engine,
		boms:     boms,
		orders:   orders,
		skuRepo:  skuRepo,
		log:      log,
	}
}

// BOMLineInput componente de una receta nueva.
type BOMLineInput struct {
	ComponentSkuID string
	Quantity       decimal.Decimal
	Unit           string
}

// CreateBOM crea una versión nueva de la receta y desactiva la vigente.
// Las versiones son inmutables una vez referenciadas por una orden iniciada;
// por eso editar siempre es crear versión, nunca mutar líneas.
func (uc *UseCase) CreateBOM(ctx context.Context, tenantID, createdBy, finishedSkuID string, lines []BOMLineInput, landedCost decimal.Decimal, landedCostDescription string) (*entity.BOM, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: BOM sin líneas", domain.ErrInvalidInput)
	}
	finished, err := uc.skuRepo.GetByID(tenantID, finishedSkuID)
	if err != nil {
		return nil, err
	}
	if finished == nil {
		return nil, fmt.Errorf("%w: SKU terminado %s", domain.ErrNotFound, finishedSkuID)
	}
	for _, l := range lines {
		if l.ComponentSkuID == finishedSkuID {
			return nil, fmt.Errorf("%w: el SKU terminado no puede ser componente de sí mismo", domain.ErrInvalidInput)
		}
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: cantidad de componente debe ser positiva", domain.ErrInvalidInput)
		}
	}
	if landedCost.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: landed_cost negativo", domain.ErrInvalidInput)
	}

	bom := &entity.BOM{
		ID:                    uuid.New().String(),
		TenantID:              tenantID,
		FinishedSkuID:         finishedSkuID,
		IsActive:              true,
		LandedCost:            landedCost,
		LandedCostDescription: landedCostDescription,
		CreatedBy:             createdBy,
		CreatedAt:             time.Now(),
	}
	for _, l := range lines {
		bom.Lines = append(bom.Lines, &entity.BOMLine{
			ID:             uuid.New().String(),
			BOMID:          bom.ID,
			ComponentSkuID: l.ComponentSkuID,
			Quantity:       l.Quantity,
			Unit:           l.Unit,
		})
	}

	err = uc.txRunner.RunAssembly(ctx, func(
		_ repository.StockEventRepository,
		boms repository.BOMRepository,
		_ repository.AssemblyOrderRepository,
	) error {
		// El número de versión se asigna con la versión activa bloqueada:
		// dos creaciones simultáneas se serializan y nunca comparten versión.
		current, err := boms.GetActiveByFinishedSkuForUpdate(tenantID, finishedSkuID)
		if err != nil {
			return err
		}
		bom.Version = 1
		if current != nil {
			bom.Version = current.Version + 1
			if err := boms.Deactivate(tenantID, current.ID); err != nil {
				return err
			}
		}
		return boms.Create(bom)
	})
	if err != nil {
		return nil, err
	}
	return bom, nil
}

// GetBOM devuelve una versión de BOM (activa o histórica) con sus líneas.
func (uc *UseCase) GetBOM(ctx context.Context, tenantID, bomID string) (*entity.BOM, error) {
	bom, err := uc.boms.GetByID(tenantID, bomID)
	if err != nil {
		return nil, err
	}
	if bom == nil {
		return nil, fmt.Errorf("%w: BOM %s", domain.ErrNotFound, bomID)
	}
	return bom, nil
}

// ListBOMVersions todas las versiones de receta de un SKU terminado.
func (uc *UseCase) ListBOMVersions(ctx context.Context, tenantID, finishedSkuID string) ([]*entity.BOM, error) {
	return uc.boms.ListVersions(tenantID, finishedSkuID)
}

// Shortage faltante de un componente para una cantidad planificada.
type Shortage struct {
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	Shortage  decimal.Decimal `json:"shortage"`
}

// AvailabilityReport resultado de CheckAvailability.
type AvailabilityReport struct {
	IsAvailable bool                `json:"is_available"`
	Shortages   map[string]Shortage `json:"shortages"`
}

// CheckAvailability explota la BOM escalada por plannedQty y compara contra
// el saldo actual de cada componente en la bodega (lectura cache-aside).
// Lectura pura: no postea eventos ni muta nada.
func (uc *UseCase) CheckAvailability(ctx context.Context, tenantID, bomID, warehouseID string, plannedQty decimal.Decimal) (*AvailabilityReport, error) {
	if !plannedQty.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: cantidad planificada debe ser positiva", domain.ErrInvalidInput)
	}
	bom, err := uc.GetBOM(ctx, tenantID, bomID)
	if err != nil {
		return nil, err
	}
	report := &AvailabilityReport{IsAvailable: true, Shortages: map[string]Shortage{}}
	for sku, required := range bom.Explode(plannedQty) {
		available, err := uc.engine.GetStockLevel(ctx, tenantID, sku, warehouseID)
		if err != nil {
			return nil, err
		}
		if available.LessThan(required) {
			report.IsAvailable = false
			report.Shortages[sku] = Shortage{
				Required:  required,
				Available: available,
				Shortage:  required.Sub(available),
			}
		}
	}
	return report, nil
}

// Start inicia una orden de ensamble: verifica disponibilidad y consume los
// componentes con ASSEMBLE_OUT, todo en una transacción. Si algún componente
// no alcanza (incluso por un posteo concurrente posterior al pre-chequeo),
// se revierte completo: ni orden ni eventos.
func (uc *UseCase) Start(ctx context.Context, tenantID, createdBy, bomID, warehouseID string, plannedQty decimal.Decimal) (*entity.AssemblyOrder, error) {
	bom, err := uc.GetBOM(ctx, tenantID, bomID)
	if err != nil {
		return nil, err
	}
	if !bom.IsActive {
		return nil, fmt.Errorf("%w: BOM %s no es la versión activa", domain.ErrStaleAggregateState, bomID)
	}
	report, err := uc.CheckAvailability(ctx, tenantID, bomID, warehouseID, plannedQty)
	if err != nil {
		return nil, err
	}
	if !report.IsAvailable {
		return nil, fmt.Errorf("%w: faltan %d componentes para ensamblar %s unidades",
			domain.ErrOutOfStock, len(report.Shortages), plannedQty.String())
	}

	order := &entity.AssemblyOrder{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		BOMID:       bom.ID,
		BOMVersion:  bom.Version,
		WarehouseID: warehouseID,
		PlannedQty:  plannedQty,
		Status:      entity.AssemblyInProgress,
		CreatedBy:   createdBy,
		StartedAt:   time.Now(),
	}
	required := bom.Explode(plannedQty)
	// Orden determinista de consumo para evitar interbloqueos entre inicios
	// concurrentes que comparten componentes.
	skus := make([]string, 0, len(required))
	for sku := range required {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	err = uc.txRunner.RunAssembly(ctx, func(
		events repository.StockEventRepository,
		_ repository.BOMRepository,
		orders repository.AssemblyOrderRepository,
	) error {
		if err := orders.Create(order); err != nil {
			return err
		}
		for _, sku := range skus {
			if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
				TenantID:      tenantID,
				SkuID:         sku,
				WarehouseID:   warehouseID,
				EventType:     entity.EventAssembleOut,
				QuantityDelta: required[sku].Neg(),
				ReferenceID:   order.ID,
				Notes:         "consumo de componente para ensamble",
				CreatedBy:     createdBy,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, sku := range skus {
		uc.engine.InvalidateBalance(ctx, tenantID, sku, warehouseID)
	}
	return order, nil
}

// Complete termina la orden: postea ASSEMBLE_IN del SKU terminado con el
// COGS por unidad (rollup de costo de componentes + landed cost de la BOM) y
// registra cantidades producida y de merma.
func (uc *UseCase) Complete(ctx context.Context, tenantID, orderID, actorID string, producedQty, wasteQty decimal.Decimal, wasteReason string) (*entity.AssemblyOrder, error) {
	if !producedQty.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: cantidad producida debe ser positiva", domain.ErrInvalidInput)
	}
	if wasteQty.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: merma negativa", domain.ErrInvalidInput)
	}
	var order *entity.AssemblyOrder
	var bom *entity.BOM
	err := uc.txRunner.RunAssembly(ctx, func(
		events repository.StockEventRepository,
		_ repository.BOMRepository,
		orders repository.AssemblyOrderRepository,
	) error {
		// La transición se decide sobre la cabecera bloqueada: dos
		// completados simultáneos se serializan y el segundo ve COMPLETE, con
		// lo que la producción entra al ledger exactamente una vez.
		var err error
		order, err = orders.GetByIDForUpdate(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: orden de ensamble %s", domain.ErrNotFound, orderID)
		}
		if !order.CanTransition(entity.AssemblyComplete) {
			return fmt.Errorf("%w: orden en %s no admite completar", domain.ErrStaleAggregateState, order.Status)
		}
		bom, err = uc.GetBOM(ctx, tenantID, order.BOMID)
		if err != nil {
			return err
		}
		cogs, err := uc.cogsPerUnit(tenantID, bom)
		if err != nil {
			return err
		}
		if _, err := uc.engine.PostEventTx(events, ledger.PostEventInput{
			TenantID:      tenantID,
			SkuID:         bom.FinishedSkuID,
			WarehouseID:   order.WarehouseID,
			EventType:     entity.EventAssembleIn,
			QuantityDelta: producedQty,
			ReferenceID:   order.ID,
			Notes:         "producción de orden de ensamble",
			CreatedBy:     actorID,
		}); err != nil {
			return err
		}
		now := time.Now()
		order.Status = entity.AssemblyComplete
		order.ProducedQty = &producedQty
		order.WasteQty = &wasteQty
		order.WasteReason = wasteReason
		order.CogsPerUnit = &cogs
		order.CompletedAt = &now
		return orders.Update(order)
	})
	if err != nil {
		return nil, err
	}
	uc.engine.InvalidateBalance(ctx, tenantID, bom.FinishedSkuID, order.WarehouseID)
	return order, nil
}

// Cancel cancela la orden desde PENDING o IN_PROGRESS.
//
// Contrato documentado: cancelar NO revierte los ASSEMBLE_OUT ya posteados;
// los componentes consumidos se tratan como merma (write-off), regla de
// negocio heredada del proceso físico: un kit a medio armar no vuelve solo
// al estante. Recuperar componentes requiere un ADJUST manual con su
// reason_code.
func (uc *UseCase) Cancel(ctx context.Context, tenantID, orderID, actorID, reason string) (*entity.AssemblyOrder, error) {
	var order *entity.AssemblyOrder
	err := uc.txRunner.RunAssembly(ctx, func(
		_ repository.StockEventRepository,
		_ repository.BOMRepository,
		orders repository.AssemblyOrderRepository,
	) error {
		var err error
		order, err = orders.GetByIDForUpdate(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: orden de ensamble %s", domain.ErrNotFound, orderID)
		}
		if !order.CanTransition(entity.AssemblyCancelled) {
			return fmt.Errorf("%w: orden en %s no admite cancelación", domain.ErrStaleAggregateState, order.Status)
		}
		order.Status = entity.AssemblyCancelled
		order.WasteReason = reason
		return orders.Update(order)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("assembly_order_id", orderID).
		Str("actor_id", actorID).
		Msg("orden de ensamble cancelada; componentes consumidos quedan como merma")
	return order, nil
}

// GetOrder devuelve una orden de ensamble.
func (uc *UseCase) GetOrder(ctx context.Context, tenantID, orderID string) (*entity.AssemblyOrder, error) {
	return uc.getOrder(tenantID, orderID)
}

// List lista órdenes de ensamble del tenant.
func (uc *UseCase) List(ctx context.Context, tenantID, status string, limit, offset int) ([]*entity.AssemblyOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.orders.List(tenantID, status, limit, offset)
}

func (uc *UseCase) getOrder(tenantID, orderID string) (*entity.AssemblyOrder, error) {
	order, err := uc.orders.GetByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: orden de ensamble %s", domain.ErrNotFound, orderID)
	}
	return order, nil
}

// cogsPerUnit = landed_cost + Σ (cantidad de línea × costo unitario del
// componente), snapshot al momento de completar.
func (uc *UseCase) cogsPerUnit(tenantID string, bom *entity.BOM) (decimal.Decimal, error) {
	total := bom.LandedCost
	for _, l := range bom.Lines {
		sku, err := uc.skuRepo.GetByID(tenantID, l.ComponentSkuID)
		if err != nil {
			return decimal.Zero, err
		}
		if sku != nil && sku.UnitCost != nil {
			total = total.Add(l.Quantity.Mul(*sku.UnitCost))
		}
	}
	return total, nil
}
