package transfer

import (
	"context"

	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// TxRunner transacción con los repositorios que necesita el flujo de
// traslados: los posteos TRANSFER_OUT/TRANSFER_IN y las mutaciones de la
// orden comparten Commit/Rollback.
type TxRunner interface {
	RunTransfer(ctx context.Context, fn func(
		events repository.StockEventRepository,
		transfers repository.TransferOrderRepository,
	) error) error
}
