package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nexus-ims/nexus-api/internal/application/assembly"
	"github.com/nexus-ims/nexus-api/internal/application/auth"
	"github.com/nexus-ims/nexus-api/internal/application/catalog"
	"github.com/nexus-ims/nexus-api/internal/application/fulfillment"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/application/scanner"
	"github.com/nexus-ims/nexus-api/internal/application/transfer"
	"github.com/nexus-ims/nexus-api/internal/infrastructure/postgres"
	infraredis "github.com/nexus-ims/nexus-api/internal/infrastructure/redis"
	httpRouter "github.com/nexus-ims/nexus-api/internal/interfaces/http"
	"github.com/nexus-ims/nexus-api/pkg/config"
	"github.com/nexus-ims/nexus-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	redisClient, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer redisClient.Close()
	balanceCache := infraredis.NewBalanceCache(redisClient, cfg.Redis.TTL)

	tenantRepo := postgres.NewTenantRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	itemTypeRepo := postgres.NewItemTypeRepository(pool)
	skuRepo := postgres.NewSKURepository(pool)
	eventRepo := postgres.NewStockEventRepository(pool)
	transferRepo := postgres.NewTransferOrderRepository(pool)
	bomRepo := postgres.NewBOMRepository(pool)
	assemblyRepo := postgres.NewAssemblyOrderRepository(pool)
	purchaseRepo := postgres.NewPurchaseOrderRepository(pool)
	salesRepo := postgres.NewSalesOrderRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	engine := ledger.NewEngine(txRunner, eventRepo, balanceCache, warehouseRepo, log.Component("ledger"))
	transferUC := transfer.NewUseCase(txRunner, engine, transferRepo, warehouseRepo, log.Component("transfer"))
	assemblyUC := assembly.NewUseCase(txRunner, engine, bomRepo, assemblyRepo, skuRepo, log.Component("assembly"))
	purchaseUC := fulfillment.NewPurchaseUseCase(txRunner, engine, purchaseRepo, log.Component("purchase"))
	salesUC := fulfillment.NewSalesUseCase(txRunner, engine, salesRepo, log.Component("sales"))
	scannerUC := scanner.NewUseCase(engine, skuRepo, log.Component("scanner"))

	warehouseUC := catalog.NewWarehouseUseCase(warehouseRepo)
	itemTypeUC := catalog.NewItemTypeUseCase(itemTypeRepo)
	skuUC := catalog.NewSKUUseCase(skuRepo, itemTypeRepo)

	authUC := auth.NewAuthUseCase(userRepo, tenantRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "NEXUS IMS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		WarehouseUC: warehouseUC,
		ItemTypeUC:  itemTypeUC,
		SKUUC:       skuUC,
		Engine:      engine,
		TransferUC:  transferUC,
		AssemblyUC:  assemblyUC,
		PurchaseUC:  purchaseUC,
		SalesUC:     salesUC,
		ScannerUC:   scannerUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
