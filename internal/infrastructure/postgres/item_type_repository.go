package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

var _ repository.ItemTypeRepository = (*ItemTypeRepo)(nil)

// ItemTypeRepo implementación del puerto ItemTypeRepository sobre PostgreSQL.
// El esquema de atributos se guarda como JSONB.
type ItemTypeRepo struct {
	q Querier
}

// NewItemTypeRepository construye el adaptador de persistencia para tipos de artículo.
func NewItemTypeRepository(q Querier) *ItemTypeRepo {
	return &ItemTypeRepo{q: q}
}

// Create persiste un nuevo tipo de artículo.
func (r *ItemTypeRepo) Create(it *entity.ItemType) error {
	query := `
		INSERT INTO item_types (id, tenant_id, name, code, attribute_schema, version, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := r.q.Exec(context.Background(), query,
		it.ID, it.TenantID, it.Name, it.Code, it.AttributeSchema, it.Version, it.IsArchived,
		it.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert item type: %w", err)
	}
	return nil
}

// GetByID obtiene un tipo de artículo por ID dentro del tenant; nil si no existe.
func (r *ItemTypeRepo) GetByID(tenantID, id string) (*entity.ItemType, error) {
	query := `
		SELECT id, tenant_id, name, code, attribute_schema, version, is_archived, created_at, updated_at
		FROM item_types WHERE tenant_id = $1 AND id = $2`
	var it entity.ItemType
	err := r.q.QueryRow(context.Background(), query, tenantID, id).Scan(
		&it.ID, &it.TenantID, &it.Name, &it.Code, &it.AttributeSchema, &it.Version,
		&it.IsArchived, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item type: %w", err)
	}
	return &it, nil
}

// ListByTenant lista los tipos de artículo del tenant.
func (r *ItemTypeRepo) ListByTenant(tenantID string) ([]*entity.ItemType, error) {
	query := `
		SELECT id, tenant_id, name, code, attribute_schema, version, is_archived, created_at, updated_at
		FROM item_types WHERE tenant_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list item types: %w", err)
	}
	defer rows.Close()
	var list []*entity.ItemType
	for rows.Next() {
		var it entity.ItemType
		if err := rows.Scan(&it.ID, &it.TenantID, &it.Name, &it.Code, &it.AttributeSchema,
			&it.Version, &it.IsArchived, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item type: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
