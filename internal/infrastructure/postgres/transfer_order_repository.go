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

var _ repository.TransferOrderRepository = (*TransferOrderRepo)(nil)

// TransferOrderRepo implementación del puerto TransferOrderRepository sobre PostgreSQL.
type TransferOrderRepo struct {
	q Querier
}

// NewTransferOrderRepository construye el adaptador de persistencia para traslados.
func NewTransferOrderRepository(q Querier) *TransferOrderRepo {
	return &TransferOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *TransferOrderRepo) Create(o *entity.TransferOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO transfer_orders (id, tenant_id, from_warehouse_id, to_warehouse_id, status, notes, created_by, created_at, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.q.Exec(ctx, query,
		o.ID, o.TenantID, o.FromWarehouseID, o.ToWarehouseID, o.Status, o.Notes,
		o.CreatedBy, o.CreatedAt, o.ReceivedAt,
	); err != nil {
		return fmt.Errorf("insert transfer order: %w", err)
	}
	lineQuery := `
		INSERT INTO transfer_order_lines (id, transfer_order_id, sku_id, quantity_requested, quantity_received)
		VALUES ($1, $2, $3, $4, $5)`
	for _, l := range o.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.TransferOrderID, l.SkuID, l.QuantityRequested, l.QuantityReceived,
		); err != nil {
			return fmt.Errorf("insert transfer line: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con líneas; nil si no existe para el tenant.
func (r *TransferOrderRepo) GetByID(tenantID, id string) (*entity.TransferOrder, error) {
	return r.getByID(tenantID, id, "")
}

// GetByIDForUpdate como GetByID pero con SELECT ... FOR UPDATE sobre la
// cabecera: dentro de una transacción, el segundo paso concurrente sobre la
// misma orden espera al commit del primero y relee el estado ya confirmado.
func (r *TransferOrderRepo) GetByIDForUpdate(tenantID, id string) (*entity.TransferOrder, error) {
	return r.getByID(tenantID, id, " FOR UPDATE")
}

func (r *TransferOrderRepo) getByID(tenantID, id, locking string) (*entity.TransferOrder, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, from_warehouse_id, to_warehouse_id, status, notes, created_by, created_at, received_at
		FROM transfer_orders WHERE tenant_id = $1 AND id = $2` + locking
	var o entity.TransferOrder
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&o.ID, &o.TenantID, &o.FromWarehouseID, &o.ToWarehouseID, &o.Status, &o.Notes,
		&o.CreatedBy, &o.CreatedAt, &o.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer order: %w", err)
	}
	lines, err := r.loadLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

// Update persiste los campos mutables de cabecera.
func (r *TransferOrderRepo) Update(o *entity.TransferOrder) error {
	query := `UPDATE transfer_orders SET status = $2, received_at = $3 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, o.ID, o.Status, o.ReceivedAt); err != nil {
		return fmt.Errorf("update transfer order: %w", err)
	}
	return nil
}

// SetLineReceived fija la cantidad recibida acumulada de la línea.
func (r *TransferOrderRepo) SetLineReceived(lineID string, qty decimal.Decimal) error {
	query := `UPDATE transfer_order_lines SET quantity_received = $2 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, lineID, qty); err != nil {
		return fmt.Errorf("update transfer line: %w", err)
	}
	return nil
}

// List lista traslados del tenant con filtros opcionales de estado y bodega
// (origen o destino).
func (r *TransferOrderRepo) List(tenantID, status, warehouseID string, limit, offset int) ([]*entity.TransferOrder, error) {
	ctx := context.Background()
	query := `
		SELECT id, tenant_id, from_warehouse_id, to_warehouse_id, status, notes, created_by, created_at, received_at
		FROM transfer_orders
		WHERE tenant_id = $1
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR from_warehouse_id = $3 OR to_warehouse_id = $3)
		ORDER BY created_at DESC LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, tenantID, status, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfer orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferOrder
	for rows.Next() {
		var o entity.TransferOrder
		if err := rows.Scan(&o.ID, &o.TenantID, &o.FromWarehouseID, &o.ToWarehouseID, &o.Status,
			&o.Notes, &o.CreatedBy, &o.CreatedAt, &o.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan transfer order: %w", err)
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

func (r *TransferOrderRepo) loadLines(ctx context.Context, orderID string) ([]*entity.TransferOrderLine, error) {
	query := `
		SELECT id, transfer_order_id, sku_id, quantity_requested, quantity_received
		FROM transfer_order_lines WHERE transfer_order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list transfer lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.TransferOrderLine
	for rows.Next() {
		var l entity.TransferOrderLine
		if err := rows.Scan(&l.ID, &l.TransferOrderID, &l.SkuID, &l.QuantityRequested, &l.QuantityReceived); err != nil {
			return nil, fmt.Errorf("scan transfer line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
