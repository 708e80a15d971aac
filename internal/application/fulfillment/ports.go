package fulfillment

import (
	"context"

	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// TxRunner transacciones para los flujos de órdenes: cada interfaz entrega
// los repositorios del flujo atados a la misma tx que los posteos al ledger.
type TxRunner interface {
	RunSales(ctx context.Context, fn func(
		events repository.StockEventRepository,
		orders repository.SalesOrderRepository,
	) error) error

	RunPurchase(ctx context.Context, fn func(
		events repository.StockEventRepository,
		orders repository.PurchaseOrderRepository,
	) error) error
}
