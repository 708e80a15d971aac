package repository

import (
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// TransferOrderRepository puerto de persistencia para traslados.
type TransferOrderRepository interface {
	// Create persiste la orden con sus líneas.
	Create(o *entity.TransferOrder) error
	// GetByID devuelve la orden con líneas; nil si no existe para el tenant.
	GetByID(tenantID, id string) (*entity.TransferOrder, error)
	// GetByIDForUpdate como GetByID pero bloqueando la cabecera hasta el fin
	// de la transacción: serializa pasos concurrentes sobre la misma orden.
	GetByIDForUpdate(tenantID, id string) (*entity.TransferOrder, error)
	// Update persiste los campos mutables de cabecera (status, received_at).
	Update(o *entity.TransferOrder) error
	// SetLineReceived fija la cantidad recibida acumulada de la línea.
	SetLineReceived(lineID string, qty decimal.Decimal) error
	List(tenantID, status, warehouseID string, limit, offset int) ([]*entity.TransferOrder, error)
}
