package assembly

import (
	"context"

	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// TxRunner transacción con los repositorios del flujo de ensamble: los
// ASSEMBLE_OUT de componentes y la creación de la orden comparten
// Commit/Rollback (si un componente no alcanza, no queda nada).
type TxRunner interface {
	RunAssembly(ctx context.Context, fn func(
		events repository.StockEventRepository,
		boms repository.BOMRepository,
		orders repository.AssemblyOrderRepository,
	) error) error
}
