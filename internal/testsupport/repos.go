package testsupport

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

// Repositorios atados "al pool": aplican cambios de inmediato sobre el Store.
// Las escrituras transaccionales van por el TxRunner de este paquete.

// EventRepo vista de lectura/escritura inmediata sobre el stock ledger.
type EventRepo struct{ st *Store }

// NewEventRepo construye el repositorio de eventos sobre el Store.
func NewEventRepo(st *Store) *EventRepo { return &EventRepo{st: st} }

var _ repository.StockEventRepository = (*EventRepo)(nil)

// LockKey fuera de una transacción no serializa nada, igual que el adaptador
// real atado al pool (el motor solo lo invoca dentro de transacciones).
func (r *EventRepo) LockKey(tenantID, skuID, warehouseID string) error { return nil }

func (r *EventRepo) Create(ev *entity.StockEvent) error {
	r.st.AddEvent(cloneEvent(ev))
	return nil
}

func (r *EventRepo) SumBalance(tenantID, skuID, warehouseID string) (decimal.Decimal, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.sumBalance(tenantID, skuID, warehouseID), nil
}

func (r *EventRepo) List(tenantID string, f repository.HistoryFilter, limit, offset int) ([]*entity.LedgerEntry, int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return listEvents(r.st.events, tenantID, f, limit, offset)
}

// listEvents replica la semántica de la consulta de historial: orden
// ascendente por created_at (estable), total de filas que cumplen el filtro
// y saldo acumulado por fila calculado sobre el log completo de la clave,
// no sobre la página.
func listEvents(events []*entity.StockEvent, tenantID string, f repository.HistoryFilter, limit, offset int) ([]*entity.LedgerEntry, int, error) {
	ordered := make([]*entity.StockEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	// Acumulado por clave sobre el log completo, evento por evento.
	running := map[string]decimal.Decimal{}
	balanceAt := make(map[string]decimal.Decimal, len(ordered))
	for _, ev := range ordered {
		k := stockKey(ev.TenantID, ev.SkuID, ev.WarehouseID)
		running[k] = running[k].Add(ev.QuantityDelta)
		balanceAt[ev.ID] = running[k]
	}

	var matched []*entity.StockEvent
	for _, ev := range ordered {
		if ev.TenantID != tenantID {
			continue
		}
		if f.SkuID != "" && ev.SkuID != f.SkuID {
			continue
		}
		if f.WarehouseID != "" && ev.WarehouseID != f.WarehouseID {
			continue
		}
		if f.EventType != "" && ev.EventType != f.EventType {
			continue
		}
		if f.CreatedBy != "" && ev.CreatedBy != f.CreatedBy {
			continue
		}
		if f.DateFrom != nil && ev.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && ev.CreatedAt.After(*f.DateTo) {
			continue
		}
		matched = append(matched, ev)
	}

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*entity.LedgerEntry, 0, end-offset)
	for _, ev := range matched[offset:end] {
		entry := &entity.LedgerEntry{Event: cloneEvent(ev)}
		if f.KeyFiltered() {
			b := balanceAt[ev.ID]
			entry.RunningBalance = &b
		}
		out = append(out, entry)
	}
	return out, total, nil
}

// ── Catálogo e identidad ─────────────────────────────────────────────────────

// TenantRepo repositorio de tenants en memoria.
type TenantRepo struct{ st *Store }

func NewTenantRepo(st *Store) *TenantRepo { return &TenantRepo{st: st} }

var _ repository.TenantRepository = (*TenantRepo)(nil)

func (r *TenantRepo) Create(t *entity.Tenant) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cp := *t
	r.st.tenants[t.ID] = &cp
	return nil
}

func (r *TenantRepo) GetByID(id string) (*entity.Tenant, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	t, ok := r.st.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// UserRepo repositorio de usuarios en memoria.
type UserRepo struct{ st *Store }

func NewUserRepo(st *Store) *UserRepo { return &UserRepo{st: st} }

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(u *entity.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	r.st.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) FindByEmail(email string) (*entity.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// WarehouseRepo repositorio de bodegas en memoria.
type WarehouseRepo struct{ st *Store }

func NewWarehouseRepo(st *Store) *WarehouseRepo { return &WarehouseRepo{st: st} }

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

func (r *WarehouseRepo) Create(w *entity.Warehouse) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cp := *w
	r.st.warehouses[w.ID] = &cp
	return nil
}

func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	w, ok := r.st.warehouses[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *WarehouseRepo) ListByTenant(tenantID string) ([]*entity.Warehouse, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.Warehouse
	for _, w := range r.st.warehouses {
		if w.TenantID == tenantID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *WarehouseRepo) Update(w *entity.Warehouse) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cp := *w
	r.st.warehouses[w.ID] = &cp
	return nil
}

// ItemTypeRepo repositorio de tipos de artículo en memoria.
type ItemTypeRepo struct{ st *Store }

func NewItemTypeRepo(st *Store) *ItemTypeRepo { return &ItemTypeRepo{st: st} }

var _ repository.ItemTypeRepository = (*ItemTypeRepo)(nil)

func (r *ItemTypeRepo) Create(it *entity.ItemType) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cp := *it
	r.st.itemTypes[it.ID] = &cp
	return nil
}

func (r *ItemTypeRepo) GetByID(tenantID, id string) (*entity.ItemType, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	it, ok := r.st.itemTypes[id]
	if !ok || it.TenantID != tenantID {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *ItemTypeRepo) ListByTenant(tenantID string) ([]*entity.ItemType, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.ItemType
	for _, it := range r.st.itemTypes {
		if it.TenantID == tenantID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// SKURepo repositorio de SKUs en memoria.
type SKURepo struct{ st *Store }

func NewSKURepo(st *Store) *SKURepo { return &SKURepo{st: st} }

var _ repository.SKURepository = (*SKURepo)(nil)

func (r *SKURepo) Create(s *entity.SKU) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cp := *s
	r.st.skus[s.ID] = &cp
	return nil
}

func (r *SKURepo) GetByID(tenantID, id string) (*entity.SKU, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.skus[id]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *SKURepo) GetByCode(tenantID, code string) (*entity.SKU, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, s := range r.st.skus {
		if s.TenantID == tenantID && s.Code == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *SKURepo) ListByTenant(tenantID string, limit, offset int) ([]*entity.SKU, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var all []*entity.SKU
	for _, s := range r.st.skus {
		if s.TenantID == tenantID {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*entity.SKU, 0, end-offset)
	for _, s := range all[offset:end] {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *SKURepo) Update(s *entity.SKU) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cp := *s
	r.st.skus[s.ID] = &cp
	return nil
}

func (r *SKURepo) Archive(tenantID, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if s, ok := r.st.skus[id]; ok && s.TenantID == tenantID {
		s.IsArchived = true
	}
	return nil
}

// ── Órdenes ──────────────────────────────────────────────────────────────────

// TransferRepo repositorio de traslados en memoria.
type TransferRepo struct{ st *Store }

func NewTransferRepo(st *Store) *TransferRepo { return &TransferRepo{st: st} }

var _ repository.TransferOrderRepository = (*TransferRepo)(nil)

func (r *TransferRepo) Create(o *entity.TransferOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.transfers[o.ID] = cloneTransfer(o)
	return nil
}

func (r *TransferRepo) GetByID(tenantID, id string) (*entity.TransferOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	o, ok := r.st.transfers[id]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	return cloneTransfer(o), nil
}

// GetByIDForUpdate atado al pool equivale a GetByID: el lock de fila
// muere con la sentencia.
func (r *TransferRepo) GetByIDForUpdate(tenantID, id string) (*entity.TransferOrder, error) {
	return r.GetByID(tenantID, id)
}

func (r *TransferRepo) Update(o *entity.TransferOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.transfers[o.ID] = cloneTransfer(o)
	return nil
}

func (r *TransferRepo) SetLineReceived(lineID string, qty decimal.Decimal) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	setTransferLine(r.st, lineID, qty)
	return nil
}

func (r *TransferRepo) List(tenantID, status, warehouseID string, limit, offset int) ([]*entity.TransferOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.TransferOrder
	for _, o := range r.st.transfers {
		if o.TenantID != tenantID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		if warehouseID != "" && o.FromWarehouseID != warehouseID && o.ToWarehouseID != warehouseID {
			continue
		}
		out = append(out, cloneTransfer(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func setTransferLine(st *Store, lineID string, qty decimal.Decimal) {
	for _, o := range st.transfers {
		for _, l := range o.Lines {
			if l.ID == lineID {
				l.QuantityReceived = qty
				return
			}
		}
	}
}

// BOMRepo repositorio de BOMs en memoria.
type BOMRepo struct{ st *Store }

func NewBOMRepo(st *Store) *BOMRepo { return &BOMRepo{st: st} }

var _ repository.BOMRepository = (*BOMRepo)(nil)

func (r *BOMRepo) Create(b *entity.BOM) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.boms[b.ID] = cloneBOM(b)
	return nil
}

func (r *BOMRepo) GetByID(tenantID, id string) (*entity.BOM, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	b, ok := r.st.boms[id]
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	return cloneBOM(b), nil
}

func (r *BOMRepo) GetActiveByFinishedSku(tenantID, finishedSkuID string) (*entity.BOM, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, b := range r.st.boms {
		if b.TenantID == tenantID && b.FinishedSkuID == finishedSkuID && b.IsActive {
			return cloneBOM(b), nil
		}
	}
	return nil, nil
}

// GetActiveByFinishedSkuForUpdate atado al pool equivale a la lectura simple.
func (r *BOMRepo) GetActiveByFinishedSkuForUpdate(tenantID, finishedSkuID string) (*entity.BOM, error) {
	return r.GetActiveByFinishedSku(tenantID, finishedSkuID)
}

func (r *BOMRepo) Deactivate(tenantID, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if b, ok := r.st.boms[id]; ok && b.TenantID == tenantID {
		b.IsActive = false
	}
	return nil
}

func (r *BOMRepo) ListVersions(tenantID, finishedSkuID string) ([]*entity.BOM, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.BOM
	for _, b := range r.st.boms {
		if b.TenantID == tenantID && b.FinishedSkuID == finishedSkuID {
			out = append(out, cloneBOM(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

// AssemblyRepo repositorio de órdenes de ensamble en memoria.
type AssemblyRepo struct{ st *Store }

func NewAssemblyRepo(st *Store) *AssemblyRepo { return &AssemblyRepo{st: st} }

var _ repository.AssemblyOrderRepository = (*AssemblyRepo)(nil)

func (r *AssemblyRepo) Create(o *entity.AssemblyOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.assemblies[o.ID] = cloneAssembly(o)
	return nil
}

func (r *AssemblyRepo) GetByID(tenantID, id string) (*entity.AssemblyOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	o, ok := r.st.assemblies[id]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	return cloneAssembly(o), nil
}

// GetByIDForUpdate atado al pool equivale a GetByID.
func (r *AssemblyRepo) GetByIDForUpdate(tenantID, id string) (*entity.AssemblyOrder, error) {
	return r.GetByID(tenantID, id)
}

func (r *AssemblyRepo) Update(o *entity.AssemblyOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.assemblies[o.ID] = cloneAssembly(o)
	return nil
}

func (r *AssemblyRepo) List(tenantID, status string, limit, offset int) ([]*entity.AssemblyOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.AssemblyOrder
	for _, o := range r.st.assemblies {
		if o.TenantID != tenantID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneAssembly(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return page(out, limit, offset), nil
}

// PurchaseRepo repositorio de órdenes de compra en memoria.
type PurchaseRepo struct{ st *Store }

func NewPurchaseRepo(st *Store) *PurchaseRepo { return &PurchaseRepo{st: st} }

var _ repository.PurchaseOrderRepository = (*PurchaseRepo)(nil)

func (r *PurchaseRepo) Create(po *entity.PurchaseOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.purchases[po.ID] = clonePurchase(po)
	return nil
}

func (r *PurchaseRepo) GetByID(tenantID, id string) (*entity.PurchaseOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	po, ok := r.st.purchases[id]
	if !ok || po.TenantID != tenantID {
		return nil, nil
	}
	return clonePurchase(po), nil
}

// GetByIDForUpdate atado al pool equivale a GetByID.
func (r *PurchaseRepo) GetByIDForUpdate(tenantID, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(tenantID, id)
}

func (r *PurchaseRepo) Update(po *entity.PurchaseOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.purchases[po.ID] = clonePurchase(po)
	return nil
}

func (r *PurchaseRepo) SetLineReceived(lineID string, qty decimal.Decimal) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	setPurchaseLine(r.st, lineID, qty)
	return nil
}

func (r *PurchaseRepo) List(tenantID, status string, limit, offset int) ([]*entity.PurchaseOrder, int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.PurchaseOrder
	for _, po := range r.st.purchases {
		if po.TenantID != tenantID {
			continue
		}
		if status != "" && po.Status != status {
			continue
		}
		out = append(out, clonePurchase(po))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	return page(out, limit, offset), total, nil
}

func setPurchaseLine(st *Store, lineID string, qty decimal.Decimal) {
	for _, po := range st.purchases {
		for _, l := range po.Lines {
			if l.ID == lineID {
				l.QuantityReceived = qty
				return
			}
		}
	}
}

// SalesRepo repositorio de órdenes de venta en memoria.
type SalesRepo struct{ st *Store }

func NewSalesRepo(st *Store) *SalesRepo { return &SalesRepo{st: st} }

var _ repository.SalesOrderRepository = (*SalesRepo)(nil)

func (r *SalesRepo) Create(o *entity.SalesOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.sales[o.ID] = cloneSales(o)
	return nil
}

func (r *SalesRepo) GetByID(tenantID, id string) (*entity.SalesOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	o, ok := r.st.sales[id]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	return cloneSales(o), nil
}

// GetByIDForUpdate atado al pool equivale a GetByID.
func (r *SalesRepo) GetByIDForUpdate(tenantID, id string) (*entity.SalesOrder, error) {
	return r.GetByID(tenantID, id)
}

func (r *SalesRepo) Update(o *entity.SalesOrder) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.sales[o.ID] = cloneSales(o)
	return nil
}

func (r *SalesRepo) SetLineFulfilled(lineID string, qty decimal.Decimal) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	setSalesLine(r.st, lineID, qty)
	return nil
}

func (r *SalesRepo) List(tenantID, status string, limit, offset int) ([]*entity.SalesOrder, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.SalesOrder
	for _, o := range r.st.sales {
		if o.TenantID != tenantID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneSales(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func setSalesLine(st *Store, lineID string, qty decimal.Decimal) {
	for _, o := range st.sales {
		for _, l := range o.Lines {
			if l.ID == lineID {
				l.FulfilledQty = qty
				return
			}
		}
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
