package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

var _ repository.AssemblyOrderRepository = (*AssemblyOrderRepo)(nil)

// AssemblyOrderRepo implementación del puerto AssemblyOrderRepository sobre PostgreSQL.
type AssemblyOrderRepo struct {
	q Querier
}

// NewAssemblyOrderRepository construye el adaptador de persistencia para órdenes de ensamble.
func NewAssemblyOrderRepository(q Querier) *AssemblyOrderRepo {
	return &AssemblyOrderRepo{q: q}
}

const assemblyColumns = `id, tenant_id, bom_id, bom_version, warehouse_id, planned_qty, produced_qty, waste_qty, waste_reason, cogs_per_unit, status, created_by, started_at, completed_at`

// Create persiste una nueva orden de ensamble.
func (r *AssemblyOrderRepo) Create(o *entity.AssemblyOrder) error {
	query := `
		INSERT INTO assembly_orders (` + assemblyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		o.ID, o.TenantID, o.BOMID, o.BOMVersion, o.WarehouseID, o.PlannedQty,
		o.ProducedQty, o.WasteQty, o.WasteReason, o.CogsPerUnit, o.Status,
		o.CreatedBy, o.StartedAt, o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assembly order: %w", err)
	}
	return nil
}

// GetByID obtiene una orden de ensamble; nil si no existe para el tenant.
func (r *AssemblyOrderRepo) GetByID(tenantID, id string) (*entity.AssemblyOrder, error) {
	return r.getByID(tenantID, id, "")
}

// GetByIDForUpdate como GetByID pero con SELECT ... FOR UPDATE sobre la
// cabecera, para serializar pasos concurrentes sobre la misma orden.
func (r *AssemblyOrderRepo) GetByIDForUpdate(tenantID, id string) (*entity.AssemblyOrder, error) {
	return r.getByID(tenantID, id, " FOR UPDATE")
}

func (r *AssemblyOrderRepo) getByID(tenantID, id, locking string) (*entity.AssemblyOrder, error) {
	query := `SELECT ` + assemblyColumns + ` FROM assembly_orders WHERE tenant_id = $1 AND id = $2` + locking
	var o entity.AssemblyOrder
	err := r.q.QueryRow(context.Background(), query, tenantID, id).Scan(
		&o.ID, &o.TenantID, &o.BOMID, &o.BOMVersion, &o.WarehouseID, &o.PlannedQty,
		&o.ProducedQty, &o.WasteQty, &o.WasteReason, &o.CogsPerUnit, &o.Status,
		&o.CreatedBy, &o.StartedAt, &o.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assembly order: %w", err)
	}
	return &o, nil
}

// Update persiste status, producido/merma, cogs y completed_at.
func (r *AssemblyOrderRepo) Update(o *entity.AssemblyOrder) error {
	query := `
		UPDATE assembly_orders
		SET status = $2, produced_qty = $3, waste_qty = $4, waste_reason = $5, cogs_per_unit = $6, completed_at = $7
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		o.ID, o.Status, o.ProducedQty, o.WasteQty, o.WasteReason, o.CogsPerUnit, o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update assembly order: %w", err)
	}
	return nil
}

// List lista órdenes de ensamble del tenant, más recientes primero.
func (r *AssemblyOrderRepo) List(tenantID, status string, limit, offset int) ([]*entity.AssemblyOrder, error) {
	query := `SELECT ` + assemblyColumns + ` FROM assembly_orders
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY started_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(context.Background(), query, tenantID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list assembly orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.AssemblyOrder
	for rows.Next() {
		var o entity.AssemblyOrder
		if err := rows.Scan(&o.ID, &o.TenantID, &o.BOMID, &o.BOMVersion, &o.WarehouseID,
			&o.PlannedQty, &o.ProducedQty, &o.WasteQty, &o.WasteReason, &o.CogsPerUnit,
			&o.Status, &o.CreatedBy, &o.StartedAt, &o.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan assembly order: %w", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}
