package repository

import (
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// PurchaseOrderRepository puerto de persistencia para órdenes de compra.
type PurchaseOrderRepository interface {
	Create(po *entity.PurchaseOrder) error
	GetByID(tenantID, id string) (*entity.PurchaseOrder, error)
	// GetByIDForUpdate bloquea la cabecera hasta el fin de la transacción.
	GetByIDForUpdate(tenantID, id string) (*entity.PurchaseOrder, error)
	Update(po *entity.PurchaseOrder) error
	SetLineReceived(lineID string, qty decimal.Decimal) error
	List(tenantID, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error)
}

// SalesOrderRepository puerto de persistencia para órdenes de venta.
type SalesOrderRepository interface {
	Create(o *entity.SalesOrder) error
	GetByID(tenantID, id string) (*entity.SalesOrder, error)
	// GetByIDForUpdate bloquea la cabecera hasta el fin de la transacción.
	GetByIDForUpdate(tenantID, id string) (*entity.SalesOrder, error)
	Update(o *entity.SalesOrder) error
	SetLineFulfilled(lineID string, qty decimal.Decimal) error
	List(tenantID, status string, limit, offset int) ([]*entity.SalesOrder, error)
}
