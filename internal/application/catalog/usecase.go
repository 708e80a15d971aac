package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// WarehouseUseCase CRUD de bodegas del tenant.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
}

// NewWarehouseUseCase construye el caso de uso de bodegas.
func NewWarehouseUseCase(repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo}
}

// Create crea una bodega activa del tenant.
func (uc *WarehouseUseCase) Create(tenantID string, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	now := time.Now()
	w := &entity.Warehouse{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      in.Name,
		Code:      in.Code,
		Address:   in.Address,
		Timezone:  in.Timezone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(w); err != nil {
		return nil, err
	}
	return toWarehouseResponse(w), nil
}

// GetByID devuelve la bodega si pertenece al tenant; nil si no existe.
func (uc *WarehouseUseCase) GetByID(tenantID, id string) (*dto.WarehouseResponse, error) {
	w, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if w == nil || w.TenantID != tenantID {
		return nil, nil
	}
	return toWarehouseResponse(w), nil
}

// List lista las bodegas del tenant.
func (uc *WarehouseUseCase) List(tenantID string) ([]dto.WarehouseResponse, error) {
	list, err := uc.repo.ListByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		out = append(out, *toWarehouseResponse(w))
	}
	return out, nil
}

// Update aplica cambios parciales; desactivar una bodega no borra su historia
// en el ledger, solo bloquea posteos nuevos.
func (uc *WarehouseUseCase) Update(tenantID, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	w, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if w == nil || w.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		w.Name = *in.Name
	}
	if in.Address != nil {
		w.Address = *in.Address
	}
	if in.Timezone != nil {
		w.Timezone = *in.Timezone
	}
	if in.IsActive != nil {
		w.IsActive = *in.IsActive
	}
	w.UpdatedAt = time.Now()
	if err := uc.repo.Update(w); err != nil {
		return nil, err
	}
	return toWarehouseResponse(w), nil
}

// ItemTypeUseCase tipos de artículo con esquema de atributos dinámico.
type ItemTypeUseCase struct {
	repo repository.ItemTypeRepository
}

// NewItemTypeUseCase construye el caso de uso de tipos de artículo.
func NewItemTypeUseCase(repo repository.ItemTypeRepository) *ItemTypeUseCase {
	return &ItemTypeUseCase{repo: repo}
}

// Create crea un tipo de artículo en versión 1.
func (uc *ItemTypeUseCase) Create(tenantID string, in dto.CreateItemTypeRequest) (*dto.ItemTypeResponse, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	it := &entity.ItemType{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Name:            in.Name,
		Code:            in.Code,
		AttributeSchema: in.AttributeSchema,
		Version:         1,
		CreatedAt:       time.Now(),
	}
	if err := uc.repo.Create(it); err != nil {
		return nil, err
	}
	return toItemTypeResponse(it), nil
}

// GetByID devuelve el tipo de artículo; nil si no existe para el tenant.
func (uc *ItemTypeUseCase) GetByID(tenantID, id string) (*dto.ItemTypeResponse, error) {
	it, err := uc.repo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, nil
	}
	return toItemTypeResponse(it), nil
}

// List lista los tipos de artículo del tenant.
func (uc *ItemTypeUseCase) List(tenantID string) ([]dto.ItemTypeResponse, error) {
	list, err := uc.repo.ListByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemTypeResponse, 0, len(list))
	for _, it := range list {
		out = append(out, *toItemTypeResponse(it))
	}
	return out, nil
}

// SKUUseCase catálogo de SKUs del tenant. Archivar en vez de borrar: el
// ledger referencia SKUs por ID y un borrado dejaría asientos huérfanos.
type SKUUseCase struct {
	skuRepo      repository.SKURepository
	itemTypeRepo repository.ItemTypeRepository
}

// NewSKUUseCase construye el caso de uso de SKUs.
func NewSKUUseCase(skuRepo repository.SKURepository, itemTypeRepo repository.ItemTypeRepository) *SKUUseCase {
	return &SKUUseCase{skuRepo: skuRepo, itemTypeRepo: itemTypeRepo}
}

// Create crea un SKU. El code es único por tenant (también es el código de
// barras del flujo de escáner); duplicado devuelve ErrDuplicate.
func (uc *SKUUseCase) Create(tenantID string, in dto.CreateSKURequest) (*dto.SKUResponse, error) {
	if in.Code == "" || in.Name == "" || in.ItemTypeID == "" {
		return nil, fmt.Errorf("%w: code, name e item_type_id son requeridos", domain.ErrInvalidInput)
	}
	it, err := uc.itemTypeRepo.GetByID(tenantID, in.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("%w: item_type %s", domain.ErrNotFound, in.ItemTypeID)
	}
	reorder, err := parseOptionalDecimal(in.ReorderPoint)
	if err != nil {
		return nil, err
	}
	cost, err := parseOptionalDecimal(in.UnitCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &entity.SKU{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Code:         in.Code,
		Name:         in.Name,
		ItemTypeID:   in.ItemTypeID,
		Attributes:   in.Attributes,
		ReorderPoint: reorder,
		UnitCost:     cost,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.skuRepo.Create(s); err != nil {
		return nil, err
	}
	return toSKUResponse(s), nil
}

// GetByID devuelve el SKU; nil si no existe para el tenant.
func (uc *SKUUseCase) GetByID(tenantID, id string) (*dto.SKUResponse, error) {
	s, err := uc.skuRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return toSKUResponse(s), nil
}

// List lista paginada de SKUs del tenant.
func (uc *SKUUseCase) List(tenantID string, limit, offset int) ([]dto.SKUResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	list, err := uc.skuRepo.ListByTenant(tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SKUResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toSKUResponse(s))
	}
	return out, nil
}

// Update aplica cambios parciales al SKU.
func (uc *SKUUseCase) Update(tenantID, id string, in dto.UpdateSKURequest) (*dto.SKUResponse, error) {
	s, err := uc.skuRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Attributes != nil {
		s.Attributes = in.Attributes
	}
	if in.ReorderPoint != nil {
		d, err := parseOptionalDecimal(in.ReorderPoint)
		if err != nil {
			return nil, err
		}
		s.ReorderPoint = d
	}
	if in.UnitCost != nil {
		d, err := parseOptionalDecimal(in.UnitCost)
		if err != nil {
			return nil, err
		}
		s.UnitCost = d
	}
	s.UpdatedAt = time.Now()
	if err := uc.skuRepo.Update(s); err != nil {
		return nil, err
	}
	return toSKUResponse(s), nil
}

// Archive marca el SKU como archivado; sus asientos del ledger quedan intactos.
func (uc *SKUUseCase) Archive(tenantID, id string) error {
	s, err := uc.skuRepo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrNotFound
	}
	return uc.skuRepo.Archive(tenantID, id)
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: decimal inválido %q", domain.ErrInvalidInput, *s)
	}
	return &d, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	return &dto.WarehouseResponse{
		ID:        w.ID,
		TenantID:  w.TenantID,
		Name:      w.Name,
		Code:      w.Code,
		Address:   w.Address,
		Timezone:  w.Timezone,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func toItemTypeResponse(it *entity.ItemType) *dto.ItemTypeResponse {
	return &dto.ItemTypeResponse{
		ID:              it.ID,
		TenantID:        it.TenantID,
		Name:            it.Name,
		Code:            it.Code,
		AttributeSchema: it.AttributeSchema,
		Version:         it.Version,
		IsArchived:      it.IsArchived,
		CreatedAt:       it.CreatedAt,
	}
}

func toSKUResponse(s *entity.SKU) *dto.SKUResponse {
	out := &dto.SKUResponse{
		ID:         s.ID,
		TenantID:   s.TenantID,
		Code:       s.Code,
		Name:       s.Name,
		ItemTypeID: s.ItemTypeID,
		Attributes: s.Attributes,
		IsArchived: s.IsArchived,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.ReorderPoint != nil {
		v := s.ReorderPoint.String()
		out.ReorderPoint = &v
	}
	if s.UnitCost != nil {
		v := s.UnitCost.String()
		out.UnitCost = &v
	}
	return out
}
