package testsupport

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
)

// Cache doble del BalanceCache con contadores para verificar el patrón
// cache-aside (hits, misses, sets, invalidaciones). Con Fail en true toda
// operación falla, para probar que la cache nunca es fatal.
type Cache struct {
	mu      sync.Mutex
	entries map[string]decimal.Decimal

	Fail bool

	Hits        int
	Misses      int
	Sets        int
	Invalidated int
}

// NewCache crea la cache de pruebas vacía.
func NewCache() *Cache {
	return &Cache{entries: map[string]decimal.Decimal{}}
}

var _ ledger.BalanceCache = (*Cache)(nil)

var errCacheDown = errors.New("cache no disponible")

func (c *Cache) Get(ctx context.Context, tenantID, skuID, warehouseID string) (decimal.Decimal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail {
		return decimal.Zero, false, errCacheDown
	}
	qty, ok := c.entries[stockKey(tenantID, skuID, warehouseID)]
	if !ok {
		c.Misses++
		return decimal.Zero, false, nil
	}
	c.Hits++
	return qty, true, nil
}

func (c *Cache) Set(ctx context.Context, tenantID, skuID, warehouseID string, qty decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail {
		return errCacheDown
	}
	c.entries[stockKey(tenantID, skuID, warehouseID)] = qty
	c.Sets++
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, tenantID, skuID, warehouseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail {
		return errCacheDown
	}
	delete(c.entries, stockKey(tenantID, skuID, warehouseID))
	c.Invalidated++
	return nil
}

// Has indica si la clave está presente en la cache.
func (c *Cache) Has(tenantID, skuID, warehouseID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[stockKey(tenantID, skuID, warehouseID)]
	return ok
}
