package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/pkg/config"
)

var _ ledger.BalanceCache = (*BalanceCache)(nil)

// NewClient crea el cliente Redis y verifica conectividad.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// BalanceCache cache-aside de saldos sobre Redis con TTL corto. Nunca es
// autoritativa: el motor de posteo siempre verifica contra el log, y una
// entrada vieja solo sobrevive hasta el TTL si la invalidación falló.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache construye la cache con el TTL configurado.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(tenantID, skuID, warehouseID string) string {
	return fmt.Sprintf("stock:%s:%s:%s", tenantID, skuID, warehouseID)
}

// Get devuelve (saldo, true) en hit; (zero, false) en miss o TTL vencido.
func (c *BalanceCache) Get(ctx context.Context, tenantID, skuID, warehouseID string) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, balanceKey(tenantID, skuID, warehouseID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("redis get: %w", err)
	}
	qty, err := decimal.NewFromString(val)
	if err != nil {
		// Entrada corrupta: tratarla como miss para que se repueble.
		return decimal.Zero, false, nil
	}
	return qty, true, nil
}

// Set escribe el saldo con TTL.
func (c *BalanceCache) Set(ctx context.Context, tenantID, skuID, warehouseID string, qty decimal.Decimal) error {
	err := c.client.Set(ctx, balanceKey(tenantID, skuID, warehouseID), qty.String(), c.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate borra la entrada de la clave.
func (c *BalanceCache) Invalidate(ctx context.Context, tenantID, skuID, warehouseID string) error {
	err := c.client.Del(ctx, balanceKey(tenantID, skuID, warehouseID)).Err()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
