package repository

import "github.com/nexus-ims/nexus-api/internal/domain/entity"

// BOMRepository puerto de persistencia para BOM (versionado append-only:
// no hay Update de líneas; editar es crear versión nueva y desactivar la vieja).
type BOMRepository interface {
	Create(b *entity.BOM) error
	GetByID(tenantID, id string) (*entity.BOM, error)
	GetActiveByFinishedSku(tenantID, finishedSkuID string) (*entity.BOM, error)
	// GetActiveByFinishedSkuForUpdate como GetActiveByFinishedSku pero
	// bloqueando la versión activa hasta el fin de la transacción, para que
	// dos creaciones concurrentes no asignen el mismo número de versión.
	GetActiveByFinishedSkuForUpdate(tenantID, finishedSkuID string) (*entity.BOM, error)
	Deactivate(tenantID, id string) error
	ListVersions(tenantID, finishedSkuID string) ([]*entity.BOM, error)
}

// AssemblyOrderRepository puerto de persistencia para órdenes de ensamble.
type AssemblyOrderRepository interface {
	Create(o *entity.AssemblyOrder) error
	GetByID(tenantID, id string) (*entity.AssemblyOrder, error)
	// GetByIDForUpdate bloquea la cabecera hasta el fin de la transacción.
	GetByIDForUpdate(tenantID, id string) (*entity.AssemblyOrder, error)
	// Update persiste status, produced/waste, cogs y completed_at.
	Update(o *entity.AssemblyOrder) error
	List(tenantID, status string, limit, offset int) ([]*entity.AssemblyOrder, error)
}
