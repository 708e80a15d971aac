package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

var _ repository.StockEventRepository = (*StockEventRepo)(nil)

// lockTimeout espera máxima por el advisory lock de una clave antes de
// rendirse con ErrConcurrencyConflict.
const lockTimeout = "3s"

// StockEventRepo implementación del puerto StockEventRepository sobre
// PostgreSQL. La tabla stock_ledger es append-only: este adaptador solo
// emite INSERT y SELECT (el rol de la aplicación ni siquiera tiene GRANT de
// UPDATE/DELETE sobre ella).
type StockEventRepo struct {
	q Querier
}

// NewStockEventRepository construye el adaptador del ledger. Acepta el pool
// (lecturas) o una transacción (posteos vía TxRunner).
func NewStockEventRepository(q Querier) *StockEventRepo {
	return &StockEventRepo{q: q}
}

// LockKey serializa los posteos de la clave (tenant, sku, bodega) con un
// advisory lock transaccional sobre el hash de la clave. El lock se libera
// solo en Commit/Rollback, así la verificación de saldo y el insert quedan
// atómicos frente a posteos concurrentes de la misma clave; claves distintas
// tienen hashes distintos y no compiten. Requiere transacción activa.
func (r *StockEventRepo) LockKey(tenantID, skuID, warehouseID string) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `SET LOCAL lock_timeout = '`+lockTimeout+`'`); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	key := tenantID + ":" + skuID + ":" + warehouseID
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	if err != nil {
		if isLockTimeout(err) {
			return fmt.Errorf("%w: clave %s ocupada", domain.ErrConcurrencyConflict, key)
		}
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

// Create agrega el evento al ledger. Nunca modifica filas existentes.
func (r *StockEventRepo) Create(ev *entity.StockEvent) error {
	query := `
		INSERT INTO stock_ledger (id, tenant_id, sku_id, warehouse_id, event_type, quantity_delta,
			reference_id, reason_code, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		ev.ID, ev.TenantID, ev.SkuID, ev.WarehouseID, ev.EventType, ev.QuantityDelta,
		ev.ReferenceID, ev.ReasonCode, ev.Notes, ev.CreatedAt, ev.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert stock event: %w", err)
	}
	return nil
}

// SumBalance saldo actual de la clave: SUM(quantity_delta) sobre el log.
func (r *StockEventRepo) SumBalance(tenantID, skuID, warehouseID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity_delta), 0)
		FROM stock_ledger
		WHERE tenant_id = $1 AND sku_id = $2 AND warehouse_id = $3`
	var balance decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, tenantID, skuID, warehouseID).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum balance: %w", err)
	}
	return balance, nil
}

// List historial ordenado por (created_at, id) ascendente. Cuando el filtro
// fija la pareja (sku, bodega), cada fila trae el saldo acumulado calculado
// sobre el prefijo completo del log de esa clave (subconsulta correlacionada,
// no ventana sobre la página): el acumulado de la página N no depende de qué
// páginas pidió antes el caller ni de filtros adicionales como event_type.
func (r *StockEventRepo) List(tenantID string, f repository.HistoryFilter, limit, offset int) ([]*entity.LedgerEntry, int, error) {
	where := "WHERE e.tenant_id = $1"
	args := []any{tenantID}
	n := 1

	addArg := func(cond string, val any) {
		n++
		where += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, val)
	}
	if f.SkuID != "" {
		addArg("e.sku_id =", f.SkuID)
	}
	if f.WarehouseID != "" {
		addArg("e.warehouse_id =", f.WarehouseID)
	}
	if f.EventType != "" {
		addArg("e.event_type =", f.EventType)
	}
	if f.CreatedBy != "" {
		addArg("e.created_by =", f.CreatedBy)
	}
	if f.DateFrom != nil {
		addArg("e.created_at >=", *f.DateFrom)
	}
	if f.DateTo != nil {
		addArg("e.created_at <=", *f.DateTo)
	}

	running := "NULL::numeric AS running_balance"
	if f.KeyFiltered() {
		running = `(
			SELECT SUM(e2.quantity_delta)
			FROM stock_ledger e2
			WHERE e2.tenant_id = e.tenant_id AND e2.sku_id = e.sku_id
				AND e2.warehouse_id = e.warehouse_id
				AND (e2.created_at, e2.id) <= (e.created_at, e.id)
		) AS running_balance`
	}

	query := fmt.Sprintf(`
		SELECT e.id, e.tenant_id, e.sku_id, e.warehouse_id, e.event_type, e.quantity_delta,
			e.reference_id, e.reason_code, e.notes, e.created_at, e.created_by,
			%s, COUNT(*) OVER() AS total
		FROM stock_ledger e
		%s
		ORDER BY e.created_at ASC, e.id ASC
		LIMIT $%d OFFSET $%d`, running, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock events: %w", err)
	}
	defer rows.Close()

	var entries []*entity.LedgerEntry
	total := 0
	for rows.Next() {
		var ev entity.StockEvent
		var runningBalance *decimal.Decimal
		if err := rows.Scan(
			&ev.ID, &ev.TenantID, &ev.SkuID, &ev.WarehouseID, &ev.EventType, &ev.QuantityDelta,
			&ev.ReferenceID, &ev.ReasonCode, &ev.Notes, &ev.CreatedAt, &ev.CreatedBy,
			&runningBalance, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan stock event: %w", err)
		}
		entries = append(entries, &entity.LedgerEntry{Event: &ev, RunningBalance: runningBalance})
	}
	return entries, total, rows.Err()
}
