package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// GetStockLevel saldo actual de la clave, cache-aside: primero cache (TTL
// corto), en miss o fallo recalcula sumando el log y repuebla. El resultado
// es eventualmente consistente con el log, con staleness acotada por el TTL;
// nunca se usa para verificar invariantes (eso lo hace el motor contra el log).
func (e *Engine) GetStockLevel(ctx context.Context, tenantID, skuID, warehouseID string) (decimal.Decimal, error) {
	qty, hit, err := e.cache.Get(ctx, tenantID, skuID, warehouseID)
	if err != nil {
		// Fallo de cache no es fatal: caer al log directamente.
		e.log.Warn().Err(err).Msg("lectura de cache de saldo falló; recalculando del log")
	} else if hit {
		return qty, nil
	}

	qty, err = e.events.SumBalance(tenantID, skuID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := e.cache.Set(ctx, tenantID, skuID, warehouseID, qty); err != nil {
		e.log.Warn().Err(err).Msg("escritura de cache de saldo falló")
	}
	return qty, nil
}
