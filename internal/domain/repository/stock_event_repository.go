package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// HistoryFilter filtros para el historial del ledger. Todos opcionales.
type HistoryFilter struct {
	SkuID       string
	WarehouseID string
	EventType   string
	CreatedBy   string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// KeyFiltered true cuando el filtro fija la pareja (sku, bodega) y por tanto
// el saldo acumulado por fila tiene sentido.
func (f HistoryFilter) KeyFiltered() bool {
	return f.SkuID != "" && f.WarehouseID != ""
}

// StockEventRepository puerto de persistencia del stock ledger (append-only:
// solo Create y lecturas; no existe Update/Delete por contrato).
type StockEventRepository interface {
	// LockKey serializa los posteos de la clave dentro de la transacción
	// actual. Bloquea hasta adquirir o falla con ErrConcurrencyConflict al
	// vencer el timeout. Claves distintas no se bloquean entre sí.
	LockKey(tenantID, skuID, warehouseID string) error

	// Create agrega el evento. Nunca modifica filas existentes.
	Create(ev *entity.StockEvent) error

	// SumBalance saldo actual de la clave: SUM(quantity_delta) sobre el log.
	SumBalance(tenantID, skuID, warehouseID string) (decimal.Decimal, error)

	// List historial ordenado por created_at ascendente con saldo acumulado
	// por fila (calculado sobre el prefijo completo, estable bajo paginación).
	// Devuelve además el total de filas que cumplen el filtro.
	List(tenantID string, f HistoryFilter, limit, offset int) ([]*entity.LedgerEntry, int, error)
}
