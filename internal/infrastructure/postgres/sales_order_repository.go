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

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo implementación del puerto SalesOrderRepository sobre PostgreSQL.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador de persistencia para órdenes de venta.
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *SalesOrderRepo) Create(o *entity.SalesOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO sales_orders (id, tenant_id, customer_name, order_reference, shipping_address, warehouse_id, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.q.Exec(ctx, query,
		o.ID, o.TenantID, o.CustomerName, o.OrderReference, o.ShippingAddress,
		o.WarehouseID, o.Status, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert sales order: %w", err)
	}
	lineQuery := `
		INSERT INTO sales_order_lines (id, sales_order_id, sku_id, quantity, unit_price, fulfilled_qty)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, l := range o.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.SalesOrderID, l.SkuID, l.Quantity, l.UnitPrice, l.FulfilledQty,
		); err != nil {
			return fmt.Errorf("insert sales line: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con líneas; nil si no existe para el tenant.
func (r *SalesOrderRepo) GetByID(tenantID, id string) (*entity.SalesOrder, error) {
	return r.getByID(tenantID, id, "")
}

// GetByIDForUpdate como GetByID pero con SELECT ... FOR UPDATE sobre la
// cabecera, para serializar pasos concurrentes sobre la misma orden.
func (r *SalesOrderRepo) GetByIDForUpdate(tenantID, id string) (*entity.SalesOrder, error) {
	return r.getByID(tenantID, id, " FOR UPDATE")
}

func (r *SalesOrderRepo) getByID(tenantID, id, locking string) (*entity.SalesOrder, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, customer_name, order_reference, shipping_address, warehouse_id, status, created_by, created_at, updated_at
		FROM sales_orders WHERE tenant_id = $1 AND id = $2` + locking
	var o entity.SalesOrder
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&o.ID, &o.TenantID, &o.CustomerName, &o.OrderReference, &o.ShippingAddress,
		&o.WarehouseID, &o.Status, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	lines, err := r.loadLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

// Update persiste los campos mutables de cabecera.
func (r *SalesOrderRepo) Update(o *entity.SalesOrder) error {
	query := `UPDATE sales_orders SET status = $2, warehouse_id = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, o.ID, o.Status, o.WarehouseID, o.UpdatedAt); err != nil {
		return fmt.Errorf("update sales order: %w", err)
	}
	return nil
}

// SetLineFulfilled fija la cantidad despachada de la línea.
func (r *SalesOrderRepo) SetLineFulfilled(lineID string, qty decimal.Decimal) error {
	query := `UPDATE sales_order_lines SET fulfilled_qty = $2 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, lineID, qty); err != nil {
		return fmt.Errorf("update sales line: %w", err)
	}
	return nil
}

// List lista órdenes de venta del tenant, más recientes primero.
func (r *SalesOrderRepo) List(tenantID, status string, limit, offset int) ([]*entity.SalesOrder, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, customer_name, order_reference, shipping_address, warehouse_id, status, created_by, created_at, updated_at
		FROM sales_orders
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, tenantID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesOrder
	for rows.Next() {
		var o entity.SalesOrder
		if err := rows.Scan(&o.ID, &o.TenantID, &o.CustomerName, &o.OrderReference,
			&o.ShippingAddress, &o.WarehouseID, &o.Status, &o.CreatedBy,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		lines, err := r.loadLines(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}
	return list, nil
}

func (r *SalesOrderRepo) loadLines(ctx context.Context, orderID string) ([]*entity.SalesOrderLine, error) {
	query := `
		SELECT id, sales_order_id, sku_id, quantity, unit_price, fulfilled_qty
		FROM sales_order_lines WHERE sales_order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list sales lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.SalesOrderLine
	for rows.Next() {
		var l entity.SalesOrderLine
		if err := rows.Scan(&l.ID, &l.SalesOrderID, &l.SkuID, &l.Quantity, &l.UnitPrice, &l.FulfilledQty); err != nil {
			return nil, fmt.Errorf("scan sales line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
