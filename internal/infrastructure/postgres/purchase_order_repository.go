package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación del puerto PurchaseOrderRepository sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador de persistencia para órdenes de compra.
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *PurchaseOrderRepo) Create(po *entity.PurchaseOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO purchase_orders (id, tenant_id, supplier_name, warehouse_id, status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.q.Exec(ctx, query,
		po.ID, po.TenantID, po.SupplierName, po.WarehouseID, po.Status, po.Notes,
		po.CreatedBy, po.CreatedAt, po.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	lineQuery := `
		INSERT INTO purchase_order_lines (id, purchase_order_id, sku_id, quantity_ordered, quantity_received, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, l := range po.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.PurchaseOrderID, l.SkuID, l.QuantityOrdered, l.QuantityReceived, l.UnitCost,
		); err != nil {
			return fmt.Errorf("insert purchase line: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con líneas; nil si no existe para el tenant.
func (r *PurchaseOrderRepo) GetByID(tenantID, id string) (*entity.PurchaseOrder, error) {
	return r.getByID(tenantID, id, "")
}

// GetByIDForUpdate como GetByID pero con SELECT ... FOR UPDATE sobre la
// cabecera, para serializar pasos concurrentes sobre la misma orden.
func (r *PurchaseOrderRepo) GetByIDForUpdate(tenantID, id string) (*entity.PurchaseOrder, error) {
	return r.getByID(tenantID, id, " FOR UPDATE")
}

func (r *PurchaseOrderRepo) getByID(tenantID, id, locking string) (*entity.PurchaseOrder, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, supplier_name, warehouse_id, status, notes, created_by, created_at, updated_at
		FROM purchase_orders WHERE tenant_id = $1 AND id = $2` + locking
	var po entity.PurchaseOrder
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&po.ID, &po.TenantID, &po.SupplierName, &po.WarehouseID, &po.Status, &po.Notes,
		&po.CreatedBy, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	lines, err := r.loadLines(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	return &po, nil
}

// Update persiste los campos mutables de cabecera.
func (r *PurchaseOrderRepo) Update(po *entity.PurchaseOrder) error {
	query := `UPDATE purchase_orders SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, po.ID, po.Status, po.Notes, po.UpdatedAt); err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	return nil
}

// SetLineReceived fija la cantidad recibida acumulada de la línea.
func (r *PurchaseOrderRepo) SetLineReceived(lineID string, qty decimal.Decimal) error {
	query := `UPDATE purchase_order_lines SET quantity_received = $2 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, lineID, qty); err != nil {
		return fmt.Errorf("update purchase line: %w", err)
	}
	return nil
}

// List lista paginada de órdenes de compra del tenant con total.
func (r *PurchaseOrderRepo) List(tenantID, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, supplier_name, warehouse_id, status, notes, created_by, created_at, updated_at,
			COUNT(*) OVER() AS total
		FROM purchase_orders
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, tenantID, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseOrder
	total := 0
	for rows.Next() {
		var po entity.PurchaseOrder
		if err := rows.Scan(&po.ID, &po.TenantID, &po.SupplierName, &po.WarehouseID, &po.Status,
			&po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, &po)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, po := range list {
		lines, err := r.loadLines(ctx, po.ID)
		if err != nil {
			return nil, 0, err
		}
		po.Lines = lines
	}
	return list, total, nil
}

func (r *PurchaseOrderRepo) loadLines(ctx context.Context, poID string) ([]*entity.PurchaseOrderLine, error) {
	query := `
		SELECT id, purchase_order_id, sku_id, quantity_ordered, quantity_received, unit_cost
		FROM purchase_order_lines WHERE purchase_order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, poID)
	if err != nil {
		return nil, fmt.Errorf("list purchase lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.PurchaseOrderLine
	for rows.Next() {
		var l entity.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.SkuID, &l.QuantityOrdered,
			&l.QuantityReceived, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
