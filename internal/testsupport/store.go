// Package testsupport provee dobles en memoria de los puertos de
// persistencia y transacción, con la misma semántica observable que los
// adaptadores de PostgreSQL: lecturas que devuelven copias, serialización
// por clave de stock y rollback de todo lo hecho dentro de una transacción.
package testsupport

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// Store estado compartido en memoria. Los repositorios y el TxRunner de este
// paquete son vistas sobre un mismo Store.
type Store struct {
	mu sync.Mutex

	events     []*entity.StockEvent
	tenants    map[string]*entity.Tenant
	users      map[string]*entity.User
	warehouses map[string]*entity.Warehouse
	itemTypes  map[string]*entity.ItemType
	skus       map[string]*entity.SKU
	transfers  map[string]*entity.TransferOrder
	boms       map[string]*entity.BOM
	assemblies map[string]*entity.AssemblyOrder
	purchases  map[string]*entity.PurchaseOrder
	sales      map[string]*entity.SalesOrder

	klmu         sync.Mutex
	keyLocks     map[string]*sync.Mutex
	lockFailures int
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		tenants:    map[string]*entity.Tenant{},
		users:      map[string]*entity.User{},
		warehouses: map[string]*entity.Warehouse{},
		itemTypes:  map[string]*entity.ItemType{},
		skus:       map[string]*entity.SKU{},
		transfers:  map[string]*entity.TransferOrder{},
		boms:       map[string]*entity.BOM{},
		assemblies: map[string]*entity.AssemblyOrder{},
		purchases:  map[string]*entity.PurchaseOrder{},
		sales:      map[string]*entity.SalesOrder{},
		keyLocks:   map[string]*sync.Mutex{},
	}
}

func stockKey(tenantID, skuID, warehouseID string) string {
	return tenantID + ":" + skuID + ":" + warehouseID
}

// keyLock mutex de la clave de stock, creado bajo demanda. Modela el
// advisory lock transaccional: se adquiere en LockKey y se libera al
// terminar la transacción.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.klmu.Lock()
	defer s.klmu.Unlock()
	m, ok := s.keyLocks[key]
	if !ok {
		m = &sync.Mutex{}
		s.keyLocks[key] = m
	}
	return m
}

// FailNextLockAttempts hace que los próximos n LockKey dentro de transacción
// devuelvan ErrConcurrencyConflict, como un advisory lock que vence su
// lock_timeout. Sirve para ejercitar las políticas de reintento de los
// casos de uso sin depender de una carrera real.
func (s *Store) FailNextLockAttempts(n int) {
	s.klmu.Lock()
	s.lockFailures = n
	s.klmu.Unlock()
}

func (s *Store) consumeLockFailure() bool {
	s.klmu.Lock()
	defer s.klmu.Unlock()
	if s.lockFailures == 0 {
		return false
	}
	s.lockFailures--
	return true
}

// sumBalance suma de deltas de la clave sobre los eventos confirmados.
// El caller debe sostener s.mu.
func (s *Store) sumBalance(tenantID, skuID, warehouseID string) decimal.Decimal {
	total := decimal.Zero
	for _, ev := range s.events {
		if ev.TenantID == tenantID && ev.SkuID == skuID && ev.WarehouseID == warehouseID {
			total = total.Add(ev.QuantityDelta)
		}
	}
	return total
}

// ── Seed helpers ─────────────────────────────────────────────────────────────

// AddTenant registra un tenant.
func (s *Store) AddTenant(t *entity.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

// AddWarehouse registra una bodega.
func (s *Store) AddWarehouse(w *entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = w
}

// AddSKU registra un SKU.
func (s *Store) AddSKU(sku *entity.SKU) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skus[sku.ID] = sku
}

// AddItemType registra un tipo de artículo.
func (s *Store) AddItemType(it *entity.ItemType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemTypes[it.ID] = it
}

// AddEvent agrega un evento directamente al log (sin pasar por el motor),
// útil para sembrar saldo inicial.
func (s *Store) AddEvent(ev *entity.StockEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	s.events = append(s.events, ev)
}

// EventsByType eventos confirmados del tipo dado, en orden de posteo.
func (s *Store) EventsByType(eventType string) []*entity.StockEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.StockEvent
	for _, ev := range s.events {
		if ev.EventType == eventType {
			out = append(out, cloneEvent(ev))
		}
	}
	return out
}

// EventCount total de eventos confirmados en el log.
func (s *Store) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// ── Clones ───────────────────────────────────────────────────────────────────
// Las lecturas devuelven copias profundas: mutar el resultado de un GetByID
// no toca el estado confirmado hasta que pase por Update, igual que con una
// fila de base de datos.

func cloneEvent(ev *entity.StockEvent) *entity.StockEvent {
	cp := *ev
	return &cp
}

func cloneTransfer(o *entity.TransferOrder) *entity.TransferOrder {
	cp := *o
	if o.ReceivedAt != nil {
		t := *o.ReceivedAt
		cp.ReceivedAt = &t
	}
	cp.Lines = make([]*entity.TransferOrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}

func cloneBOM(b *entity.BOM) *entity.BOM {
	cp := *b
	cp.Lines = make([]*entity.BOMLine, len(b.Lines))
	for i, l := range b.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}

func cloneAssembly(o *entity.AssemblyOrder) *entity.AssemblyOrder {
	cp := *o
	if o.ProducedQty != nil {
		v := *o.ProducedQty
		cp.ProducedQty = &v
	}
	if o.WasteQty != nil {
		v := *o.WasteQty
		cp.WasteQty = &v
	}
	if o.CogsPerUnit != nil {
		v := *o.CogsPerUnit
		cp.CogsPerUnit = &v
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func clonePurchase(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	cp := *po
	cp.Lines = make([]*entity.PurchaseOrderLine, len(po.Lines))
	for i, l := range po.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}

func cloneSales(o *entity.SalesOrder) *entity.SalesOrder {
	cp := *o
	cp.Lines = make([]*entity.SalesOrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}
