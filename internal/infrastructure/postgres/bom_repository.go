package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación del puerto BOMRepository sobre PostgreSQL.
// Versionado append-only: las líneas nunca se actualizan; editar una receta
// es insertar una versión nueva y desactivar la anterior.
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador de persistencia para BOMs.
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// Create persiste la receta con sus líneas.
func (r *BOMRepo) Create(b *entity.BOM) error {
	ctx := context.Background()
	query := `
		INSERT INTO boms (id, tenant_id, finished_sku_id, version, is_active, landed_cost, landed_cost_description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.q.Exec(ctx, query,
		b.ID, b.TenantID, b.FinishedSkuID, b.Version, b.IsActive, b.LandedCost,
		b.LandedCostDescription, b.CreatedBy, b.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert bom: %w", err)
	}
	lineQuery := `
		INSERT INTO bom_lines (id, bom_id, component_sku_id, quantity, unit)
		VALUES ($1, $2, $3, $4, $5)`
	for _, l := range b.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, l.ID, l.BOMID, l.ComponentSkuID, l.Quantity, l.Unit); err != nil {
			return fmt.Errorf("insert bom line: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la receta con líneas; nil si no existe para el tenant.
func (r *BOMRepo) GetByID(tenantID, id string) (*entity.BOM, error) {
	return r.getOne(`WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetActiveByFinishedSku devuelve la versión activa de la receta del SKU
// terminado; nil si no hay receta activa.
func (r *BOMRepo) GetActiveByFinishedSku(tenantID, finishedSkuID string) (*entity.BOM, error) {
	return r.getOne(`WHERE tenant_id = $1 AND finished_sku_id = $2 AND is_active`, tenantID, finishedSkuID)
}

// GetActiveByFinishedSkuForUpdate como GetActiveByFinishedSku pero con
// SELECT ... FOR UPDATE sobre la versión activa: dos creaciones concurrentes
// de receta se serializan y no asignan el mismo número de versión.
func (r *BOMRepo) GetActiveByFinishedSkuForUpdate(tenantID, finishedSkuID string) (*entity.BOM, error) {
	return r.getOne(`WHERE tenant_id = $1 AND finished_sku_id = $2 AND is_active FOR UPDATE`, tenantID, finishedSkuID)
}

// Deactivate marca la receta como inactiva (la versión queda consultable).
func (r *BOMRepo) Deactivate(tenantID, id string) error {
	query := `UPDATE boms SET is_active = FALSE WHERE tenant_id = $1 AND id = $2`
	if _, err := r.q.Exec(context.Background(), query, tenantID, id); err != nil {
		return fmt.Errorf("deactivate bom: %w", err)
	}
	return nil
}

// ListVersions lista todas las versiones de receta del SKU terminado,
// más reciente primero.
func (r *BOMRepo) ListVersions(tenantID, finishedSkuID string) ([]*entity.BOM, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, finished_sku_id, version, is_active, landed_cost, landed_cost_description, created_by, created_at
		FROM boms WHERE tenant_id = $1 AND finished_sku_id = $2 ORDER BY version DESC`
	rows, err := r.q.Query(ctx, query, tenantID, finishedSkuID)
	if err != nil {
		return nil, fmt.Errorf("list bom versions: %w", err)
	}
	defer rows.Close()
	var list []*entity.BOM
	for rows.Next() {
		var b entity.BOM
		if err := rows.Scan(&b.ID, &b.TenantID, &b.FinishedSkuID, &b.Version, &b.IsActive,
			&b.LandedCost, &b.LandedCostDescription, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bom: %w", err)
		}
		list = append(list, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range list {
		lines, err := r.loadLines(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		b.Lines = lines
	}
	return list, nil
}

func (r *BOMRepo) getOne(where string, args ...any) (*entity.BOM, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, finished_sku_id, version, is_active, landed_cost, landed_cost_description, created_by, created_at
		FROM boms ` + where
	var b entity.BOM
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&b.ID, &b.TenantID, &b.FinishedSkuID, &b.Version, &b.IsActive,
		&b.LandedCost, &b.LandedCostDescription, &b.CreatedBy, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bom: %w", err)
	}
	lines, err := r.loadLines(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines
	return &b, nil
}

func (r *BOMRepo) loadLines(ctx context.Context, bomID string) ([]*entity.BOMLine, error) {
	query := `
		SELECT id, bom_id, component_sku_id, quantity, unit
		FROM bom_lines WHERE bom_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, bomID)
	if err != nil {
		return nil, fmt.Errorf("list bom lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.BOMLine
	for rows.Next() {
		var l entity.BOMLine
		if err := rows.Scan(&l.ID, &l.BOMID, &l.ComponentSkuID, &l.Quantity, &l.Unit); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
