package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de BD, con el repositorio del
// ledger atado a esa tx. Garantiza atomicidad entre la verificación de saldo
// y el insert del evento.
type TxRunner interface {
	Run(ctx context.Context, fn func(events repository.StockEventRepository) error) error
}

// BalanceCache capa cache-aside para lecturas de saldo (TTL corto). Nunca es
// autoritativa: el motor de posteo siempre recalcula contra el log y la
// invalidación es best-effort.
type BalanceCache interface {
	// Get devuelve (saldo, true) en hit; (zero, false) en miss o TTL vencido.
	Get(ctx context.Context, tenantID, skuID, warehouseID string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, tenantID, skuID, warehouseID string, qty decimal.Decimal) error
	Invalidate(ctx context.Context, tenantID, skuID, warehouseID string) error
}
