// Comando seed: carga datos de demostración (tenant, usuario ADMIN, bodegas,
// tipo de artículo y SKUs) para levantar un entorno local utilizable.
package main

import (
	"context"

	"github.com/nexus-ims/nexus-api/internal/application/auth"
	"github.com/nexus-ims/nexus-api/internal/application/catalog"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/infrastructure/postgres"
	"github.com/nexus-ims/nexus-api/pkg/config"
	"github.com/nexus-ims/nexus-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tenantRepo := postgres.NewTenantRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	itemTypeRepo := postgres.NewItemTypeRepository(pool)
	skuRepo := postgres.NewSKURepository(pool)

	authUC := auth.NewAuthUseCase(userRepo, tenantRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	warehouseUC := catalog.NewWarehouseUseCase(warehouseRepo)
	itemTypeUC := catalog.NewItemTypeUseCase(itemTypeRepo)
	skuUC := catalog.NewSKUUseCase(skuRepo, itemTypeRepo)

	tenant, err := authUC.RegisterTenant(dto.RegisterTenantRequest{
		TenantName: "Demo Warehouse Co",
		Email:      "admin@demo.local",
		Password:   "demo-admin-1",
		Name:       "Admin Demo",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear tenant de demo")
	}
	tenantID := tenant.TenantID
	log.Info().Str("tenant_id", tenantID).Msg("tenant de demo creado")

	for _, w := range []dto.CreateWarehouseRequest{
		{Name: "Bodega Central", Code: "BOG-01", Address: "Calle 100 #10-20, Bogotá", Timezone: "America/Bogota"},
		{Name: "Bodega Norte", Code: "MED-01", Address: "Carrera 43A #1-50, Medellín", Timezone: "America/Bogota"},
	} {
		wh, err := warehouseUC.Create(tenantID, w)
		if err != nil {
			log.Fatal().Err(err).Str("code", w.Code).Msg("crear bodega")
		}
		log.Info().Str("warehouse_id", wh.ID).Str("code", wh.Code).Msg("bodega creada")
	}

	it, err := itemTypeUC.Create(tenantID, dto.CreateItemTypeRequest{
		Name: "Producto terminado",
		Code: "FINISHED",
		AttributeSchema: []map[string]any{
			{"name": "color", "type": "string"},
			{"name": "peso_kg", "type": "number"},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear tipo de artículo")
	}

	reorder := "10"
	cost := "12.50"
	for _, s := range []dto.CreateSKURequest{
		{Code: "7701234567890", Name: "Silla ergonómica", ItemTypeID: it.ID, Attributes: map[string]any{"color": "negro", "peso_kg": 8.5}, ReorderPoint: &reorder, UnitCost: &cost},
		{Code: "7701234567891", Name: "Escritorio plegable", ItemTypeID: it.ID, Attributes: map[string]any{"color": "roble"}},
	} {
		sku, err := skuUC.Create(tenantID, s)
		if err != nil {
			log.Fatal().Err(err).Str("code", s.Code).Msg("crear SKU")
		}
		log.Info().Str("sku_id", sku.ID).Str("code", sku.Code).Msg("SKU creado")
	}

	log.Info().Msg("seed completado")
}
