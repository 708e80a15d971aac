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

var _ repository.SKURepository = (*SKURepo)(nil)

// SKURepo implementación del puerto SKURepository sobre PostgreSQL.
// Los atributos dinámicos se guardan como JSONB; code es único por tenant.
type SKURepo struct {
	q Querier
}

// NewSKURepository construye el adaptador de persistencia para SKUs.
func NewSKURepository(q Querier) *SKURepo {
	return &SKURepo{q: q}
}

const skuColumns = `id, tenant_id, code, name, item_type_id, attributes, reorder_point, unit_cost, is_archived, created_at, updated_at`

// Create persiste un SKU. Code duplicado en el tenant devuelve ErrDuplicate.
func (r *SKURepo) Create(s *entity.SKU) error {
	query := `
		INSERT INTO skus (id, tenant_id, code, name, item_type_id, attributes, reorder_point, unit_cost, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		s.ID, s.TenantID, s.Code, s.Name, s.ItemTypeID, s.Attributes,
		s.ReorderPoint, s.UnitCost, s.IsArchived, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sku: %w", err)
	}
	return nil
}

// GetByID obtiene un SKU por ID dentro del tenant; nil si no existe.
func (r *SKURepo) GetByID(tenantID, id string) (*entity.SKU, error) {
	query := `SELECT ` + skuColumns + ` FROM skus WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, tenantID, id))
}

// GetByCode obtiene un SKU por code (código de barras) dentro del tenant.
func (r *SKURepo) GetByCode(tenantID, code string) (*entity.SKU, error) {
	query := `SELECT ` + skuColumns + ` FROM skus WHERE tenant_id = $1 AND code = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, tenantID, code))
}

// ListByTenant lista paginada de SKUs del tenant.
func (r *SKURepo) ListByTenant(tenantID string, limit, offset int) ([]*entity.SKU, error) {
	query := `SELECT ` + skuColumns + ` FROM skus
		WHERE tenant_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list skus: %w", err)
	}
	defer rows.Close()
	var list []*entity.SKU
	for rows.Next() {
		var s entity.SKU
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.ItemTypeID, &s.Attributes,
			&s.ReorderPoint, &s.UnitCost, &s.IsArchived, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sku: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// Update actualiza los campos mutables del SKU.
func (r *SKURepo) Update(s *entity.SKU) error {
	query := `
		UPDATE skus SET name = $3, attributes = $4, reorder_point = $5, unit_cost = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2`
	_, err := r.q.Exec(context.Background(), query,
		s.TenantID, s.ID, s.Name, s.Attributes, s.ReorderPoint, s.UnitCost, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update sku: %w", err)
	}
	return nil
}

// Archive marca el SKU como archivado (no se borra: el ledger lo referencia).
func (r *SKURepo) Archive(tenantID, id string) error {
	query := `UPDATE skus SET is_archived = TRUE, updated_at = now() WHERE tenant_id = $1 AND id = $2`
	_, err := r.q.Exec(context.Background(), query, tenantID, id)
	if err != nil {
		return fmt.Errorf("archive sku: %w", err)
	}
	return nil
}

func (r *SKURepo) scanOne(row pgx.Row) (*entity.SKU, error) {
	var s entity.SKU
	err := row.Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.ItemTypeID, &s.Attributes,
		&s.ReorderPoint, &s.UnitCost, &s.IsArchived, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sku: %w", err)
	}
	return &s, nil
}
