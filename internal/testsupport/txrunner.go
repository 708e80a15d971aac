package testsupport

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/assembly"
	"github.com/nexus-ims/nexus-api/internal/application/fulfillment"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/application/transfer"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// TxRunner doble transaccional: las escrituras hechas dentro de fn quedan en
// staging y se aplican al Store solo si fn retorna nil; si fn falla no queda
// rastro. LockKey dentro de la transacción toma el mutex de la clave y lo
// sostiene hasta el commit/rollback, igual que un advisory lock de PostgreSQL.
type TxRunner struct{ st *Store }

// NewTxRunner construye el TxRunner de pruebas sobre el Store.
func NewTxRunner(st *Store) *TxRunner { return &TxRunner{st: st} }

var (
	_ ledger.TxRunner      = (*TxRunner)(nil)
	_ transfer.TxRunner    = (*TxRunner)(nil)
	_ assembly.TxRunner    = (*TxRunner)(nil)
	_ fulfillment.TxRunner = (*TxRunner)(nil)
)

type txState struct {
	st       *Store
	staged   []*entity.StockEvent
	ops      []func(st *Store)
	held     []*sync.Mutex
	heldKeys map[string]bool
}

func (r *TxRunner) begin() *txState {
	return &txState{st: r.st, heldKeys: map[string]bool{}}
}

// acquireKey toma el mutex de la clave salvo que esta transacción ya lo
// sostenga: el advisory lock de PostgreSQL es reentrante en la misma sesión.
func (tx *txState) acquireKey(key string) {
	if tx.heldKeys[key] {
		return
	}
	m := tx.st.keyLock(key)
	m.Lock()
	tx.held = append(tx.held, m)
	tx.heldKeys[key] = true
}

// lockAgg toma el lock del agregado y lo sostiene hasta el fin de la
// transacción, como un SELECT ... FOR UPDATE sobre la cabecera: el paso
// rival espera el commit y después relee el estado ya confirmado.
func (tx *txState) lockAgg(kind, id string) {
	tx.acquireKey("agg:" + kind + ":" + id)
}

// finish aplica o descarta el staging y libera los locks de clave. Los locks
// se sueltan después de aplicar, para que una transacción rival que espere la
// clave vea los eventos ya confirmados al recalcular el saldo.
func (tx *txState) finish(ferr error) {
	if ferr == nil {
		tx.st.mu.Lock()
		tx.st.events = append(tx.st.events, tx.staged...)
		for _, op := range tx.ops {
			op(tx.st)
		}
		tx.st.mu.Unlock()
	}
	for _, m := range tx.held {
		m.Unlock()
	}
}

// Run transacción con solo el repositorio del ledger.
func (r *TxRunner) Run(ctx context.Context, fn func(events repository.StockEventRepository) error) error {
	tx := r.begin()
	err := fn(&txEvents{tx: tx})
	tx.finish(err)
	return err
}

// RunTransfer transacción del flujo de traslados.
func (r *TxRunner) RunTransfer(ctx context.Context, fn func(
	events repository.StockEventRepository,
	transfers repository.TransferOrderRepository,
) error) error {
	tx := r.begin()
	err := fn(&txEvents{tx: tx}, &txTransfers{tx: tx})
	tx.finish(err)
	return err
}

// RunAssembly transacción del flujo de ensamble.
func (r *TxRunner) RunAssembly(ctx context.Context, fn func(
	events repository.StockEventRepository,
	boms repository.BOMRepository,
	orders repository.AssemblyOrderRepository,
) error) error {
	tx := r.begin()
	err := fn(&txEvents{tx: tx}, &txBOMs{tx: tx}, &txAssemblies{tx: tx})
	tx.finish(err)
	return err
}

// RunSales transacción del flujo de ventas.
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	events repository.StockEventRepository,
	orders repository.SalesOrderRepository,
) error) error {
	tx := r.begin()
	err := fn(&txEvents{tx: tx}, &txSales{tx: tx})
	tx.finish(err)
	return err
}

// RunPurchase transacción del flujo de compras.
func (r *TxRunner) RunPurchase(ctx context.Context, fn func(
	events repository.StockEventRepository,
	orders repository.PurchaseOrderRepository,
) error) error {
	tx := r.begin()
	err := fn(&txEvents{tx: tx}, &txPurchases{tx: tx})
	tx.finish(err)
	return err
}

// ── Repositorios atados a la transacción ─────────────────────────────────────

type txEvents struct{ tx *txState }

var _ repository.StockEventRepository = (*txEvents)(nil)

func (e *txEvents) LockKey(tenantID, skuID, warehouseID string) error {
	key := stockKey(tenantID, skuID, warehouseID)
	if e.tx.heldKeys[key] {
		return nil
	}
	if e.tx.st.consumeLockFailure() {
		return domain.ErrConcurrencyConflict
	}
	e.tx.acquireKey(key)
	return nil
}

func (e *txEvents) Create(ev *entity.StockEvent) error {
	e.tx.staged = append(e.tx.staged, cloneEvent(ev))
	return nil
}

// SumBalance confirmados más staging de esta transacción: la transacción ve
// sus propias escrituras.
func (e *txEvents) SumBalance(tenantID, skuID, warehouseID string) (decimal.Decimal, error) {
	e.tx.st.mu.Lock()
	total := e.tx.st.sumBalance(tenantID, skuID, warehouseID)
	e.tx.st.mu.Unlock()
	for _, ev := range e.tx.staged {
		if ev.TenantID == tenantID && ev.SkuID == skuID && ev.WarehouseID == warehouseID {
			total = total.Add(ev.QuantityDelta)
		}
	}
	return total, nil
}

func (e *txEvents) List(tenantID string, f repository.HistoryFilter, limit, offset int) ([]*entity.LedgerEntry, int, error) {
	e.tx.st.mu.Lock()
	all := make([]*entity.StockEvent, 0, len(e.tx.st.events)+len(e.tx.staged))
	all = append(all, e.tx.st.events...)
	e.tx.st.mu.Unlock()
	all = append(all, e.tx.staged...)
	return listEvents(all, tenantID, f, limit, offset)
}

type txTransfers struct{ tx *txState }

var _ repository.TransferOrderRepository = (*txTransfers)(nil)

func (r *txTransfers) Create(o *entity.TransferOrder) error {
	cp := cloneTransfer(o)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.transfers[cp.ID] = cp })
	return nil
}

func (r *txTransfers) GetByID(tenantID, id string) (*entity.TransferOrder, error) {
	return NewTransferRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txTransfers) GetByIDForUpdate(tenantID, id string) (*entity.TransferOrder, error) {
	r.tx.lockAgg("transfer", id)
	return NewTransferRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txTransfers) Update(o *entity.TransferOrder) error {
	cp := cloneTransfer(o)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.transfers[cp.ID] = cp })
	return nil
}

func (r *txTransfers) SetLineReceived(lineID string, qty decimal.Decimal) error {
	r.tx.ops = append(r.tx.ops, func(st *Store) { setTransferLine(st, lineID, qty) })
	return nil
}

func (r *txTransfers) List(tenantID, status, warehouseID string, limit, offset int) ([]*entity.TransferOrder, error) {
	return NewTransferRepo(r.tx.st).List(tenantID, status, warehouseID, limit, offset)
}

type txBOMs struct{ tx *txState }

var _ repository.BOMRepository = (*txBOMs)(nil)

func (r *txBOMs) Create(b *entity.BOM) error {
	cp := cloneBOM(b)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.boms[cp.ID] = cp })
	return nil
}

func (r *txBOMs) GetByID(tenantID, id string) (*entity.BOM, error) {
	return NewBOMRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txBOMs) GetActiveByFinishedSku(tenantID, finishedSkuID string) (*entity.BOM, error) {
	return NewBOMRepo(r.tx.st).GetActiveByFinishedSku(tenantID, finishedSkuID)
}

func (r *txBOMs) GetActiveByFinishedSkuForUpdate(tenantID, finishedSkuID string) (*entity.BOM, error) {
	r.tx.lockAgg("bom", tenantID+":"+finishedSkuID)
	return NewBOMRepo(r.tx.st).GetActiveByFinishedSku(tenantID, finishedSkuID)
}

func (r *txBOMs) Deactivate(tenantID, id string) error {
	r.tx.ops = append(r.tx.ops, func(st *Store) {
		if b, ok := st.boms[id]; ok && b.TenantID == tenantID {
			b.IsActive = false
		}
	})
	return nil
}

func (r *txBOMs) ListVersions(tenantID, finishedSkuID string) ([]*entity.BOM, error) {
	return NewBOMRepo(r.tx.st).ListVersions(tenantID, finishedSkuID)
}

type txAssemblies struct{ tx *txState }

var _ repository.AssemblyOrderRepository = (*txAssemblies)(nil)

func (r *txAssemblies) Create(o *entity.AssemblyOrder) error {
	cp := cloneAssembly(o)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.assemblies[cp.ID] = cp })
	return nil
}

func (r *txAssemblies) GetByID(tenantID, id string) (*entity.AssemblyOrder, error) {
	return NewAssemblyRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txAssemblies) GetByIDForUpdate(tenantID, id string) (*entity.AssemblyOrder, error) {
	r.tx.lockAgg("assembly", id)
	return NewAssemblyRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txAssemblies) Update(o *entity.AssemblyOrder) error {
	cp := cloneAssembly(o)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.assemblies[cp.ID] = cp })
	return nil
}

func (r *txAssemblies) List(tenantID, status string, limit, offset int) ([]*entity.AssemblyOrder, error) {
	return NewAssemblyRepo(r.tx.st).List(tenantID, status, limit, offset)
}

type txPurchases struct{ tx *txState }

var _ repository.PurchaseOrderRepository = (*txPurchases)(nil)

func (r *txPurchases) Create(po *entity.PurchaseOrder) error {
	cp := clonePurchase(po)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.purchases[cp.ID] = cp })
	return nil
}

func (r *txPurchases) GetByID(tenantID, id string) (*entity.PurchaseOrder, error) {
	return NewPurchaseRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txPurchases) GetByIDForUpdate(tenantID, id string) (*entity.PurchaseOrder, error) {
	r.tx.lockAgg("purchase", id)
	return NewPurchaseRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txPurchases) Update(po *entity.PurchaseOrder) error {
	cp := clonePurchase(po)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.purchases[cp.ID] = cp })
	return nil
}

func (r *txPurchases) SetLineReceived(lineID string, qty decimal.Decimal) error {
	r.tx.ops = append(r.tx.ops, func(st *Store) { setPurchaseLine(st, lineID, qty) })
	return nil
}

func (r *txPurchases) List(tenantID, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error) {
	return NewPurchaseRepo(r.tx.st).List(tenantID, status, limit, offset)
}

type txSales struct{ tx *txState }

var _ repository.SalesOrderRepository = (*txSales)(nil)

func (r *txSales) Create(o *entity.SalesOrder) error {
	cp := cloneSales(o)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.sales[cp.ID] = cp })
	return nil
}

func (r *txSales) GetByID(tenantID, id string) (*entity.SalesOrder, error) {
	return NewSalesRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txSales) GetByIDForUpdate(tenantID, id string) (*entity.SalesOrder, error) {
	r.tx.lockAgg("sales", id)
	return NewSalesRepo(r.tx.st).GetByID(tenantID, id)
}

func (r *txSales) Update(o *entity.SalesOrder) error {
	cp := cloneSales(o)
	r.tx.ops = append(r.tx.ops, func(st *Store) { st.sales[cp.ID] = cp })
	return nil
}

func (r *txSales) SetLineFulfilled(lineID string, qty decimal.Decimal) error {
	r.tx.ops = append(r.tx.ops, func(st *Store) { setSalesLine(st, lineID, qty) })
	return nil
}

func (r *txSales) List(tenantID, status string, limit, offset int) ([]*entity.SalesOrder, error) {
	return NewSalesRepo(r.tx.st).List(tenantID, status, limit, offset)
}
