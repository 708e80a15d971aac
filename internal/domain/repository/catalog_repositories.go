package repository

import "github.com/nexus-ims/nexus-api/internal/domain/entity"

// TenantRepository puerto de persistencia para Tenant.
type TenantRepository interface {
	Create(t *entity.Tenant) error
	GetByID(id string) (*entity.Tenant, error)
}

// UserRepository puerto de persistencia para User.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
}

// WarehouseRepository puerto de persistencia para Warehouse.
type WarehouseRepository interface {
	Create(w *entity.Warehouse) error
	GetByID(id string) (*entity.Warehouse, error)
	ListByTenant(tenantID string) ([]*entity.Warehouse, error)
	Update(w *entity.Warehouse) error
}

// ItemTypeRepository puerto de persistencia para ItemType.
type ItemTypeRepository interface {
	Create(it *entity.ItemType) error
	GetByID(tenantID, id string) (*entity.ItemType, error)
	ListByTenant(tenantID string) ([]*entity.ItemType, error)
}

// SKURepository puerto de persistencia para SKU.
type SKURepository interface {
	Create(s *entity.SKU) error
	GetByID(tenantID, id string) (*entity.SKU, error)
	GetByCode(tenantID, code string) (*entity.SKU, error)
	ListByTenant(tenantID string, limit, offset int) ([]*entity.SKU, error)
	Update(s *entity.SKU) error
	Archive(tenantID, id string) error
}
