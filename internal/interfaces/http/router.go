package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/assembly"
	"github.com/nexus-ims/nexus-api/internal/application/auth"
	"github.com/nexus-ims/nexus-api/internal/application/catalog"
	"github.com/nexus-ims/nexus-api/internal/application/fulfillment"
	"github.com/nexus-ims/nexus-api/internal/application/ledger"
	"github.com/nexus-ims/nexus-api/internal/application/scanner"
	"github.com/nexus-ims/nexus-api/internal/application/transfer"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	WarehouseUC *catalog.WarehouseUseCase
	ItemTypeUC  *catalog.ItemTypeUseCase
	SKUUC       *catalog.SKUUseCase
	Engine      *ledger.Engine
	TransferUC  *transfer.UseCase
	AssemblyUC  *assembly.UseCase
	PurchaseUC  *fulfillment.PurchaseUseCase
	SalesUC     *fulfillment.SalesUseCase
	ScannerUC   *scanner.UseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (registro de tenant y login públicos)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.RegisterTenant)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Alta de usuarios dentro del tenant (solo ADMIN)
	protected.Post("/auth/users", RequireRole(entity.RoleAdmin), authHandler.RegisterUser)

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", RequireRole(rolesAll...), warehouseHandler.List)
	warehouses.Get("/:id", RequireRole(rolesAll...), warehouseHandler.GetByID)
	warehouses.Post("/", RequireRole(rolesManage...), warehouseHandler.Create)
	warehouses.Put("/:id", RequireRole(rolesManage...), warehouseHandler.Update)

	// Item types
	itemTypes := protected.Group("/item-types")
	itemTypeHandler := NewItemTypeHandler(deps.ItemTypeUC)
	itemTypes.Get("/", RequireRole(rolesAll...), itemTypeHandler.List)
	itemTypes.Get("/:id", RequireRole(rolesAll...), itemTypeHandler.GetByID)
	itemTypes.Post("/", RequireRole(rolesManage...), itemTypeHandler.Create)

	// SKUs
	skus := protected.Group("/skus")
	skuHandler := NewSKUHandler(deps.SKUUC)
	skus.Get("/", RequireRole(rolesAll...), skuHandler.List)
	skus.Get("/:id", RequireRole(rolesAll...), skuHandler.GetByID)
	skus.Post("/", RequireRole(rolesManage...), skuHandler.Create)
	skus.Put("/:id", RequireRole(rolesManage...), skuHandler.Update)
	skus.Delete("/:id", RequireRole(rolesManage...), skuHandler.Archive)

	// Ledger: posteos y consultas de stock
	ledgerHandler := NewLedgerHandler(deps.Engine)
	protected.Post("/transactions", RequireRole(rolesOperate...), ledgerHandler.PostTransaction)
	protected.Post("/transactions/cycle-count", RequireRole(rolesOperate...), ledgerHandler.CycleCount)
	protected.Get("/stock/level", RequireRole(rolesAll...), ledgerHandler.StockLevel)
	protected.Get("/stock/history", RequireRole(rolesAll...), ledgerHandler.History)

	// Transfers
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Get("/", RequireRole(rolesAll...), transferHandler.List)
	transfers.Get("/:id", RequireRole(rolesAll...), transferHandler.GetByID)
	transfers.Post("/", RequireRole(rolesManage...), transferHandler.Create)
	transfers.Post("/:id/receive", RequireRole(rolesOperate...), transferHandler.Receive)
	transfers.Post("/:id/cancel", RequireRole(rolesManage...), transferHandler.Cancel)

	// BOMs y órdenes de ensamble
	assemblyHandler := NewAssemblyHandler(deps.AssemblyUC)
	boms := protected.Group("/boms")
	boms.Get("/", RequireRole(rolesAll...), assemblyHandler.ListBOMVersions)
	boms.Get("/:id", RequireRole(rolesAll...), assemblyHandler.GetBOM)
	boms.Get("/:id/availability", RequireRole(rolesAll...), assemblyHandler.CheckAvailability)
	boms.Post("/", RequireRole(rolesManage...), assemblyHandler.CreateBOM)
	assemblies := protected.Group("/assembly-orders")
	assemblies.Get("/", RequireRole(rolesAll...), assemblyHandler.ListOrders)
	assemblies.Get("/:id", RequireRole(rolesAll...), assemblyHandler.GetOrder)
	assemblies.Post("/", RequireRole(rolesManage...), assemblyHandler.Start)
	assemblies.Post("/:id/complete", RequireRole(rolesOperate...), assemblyHandler.Complete)
	assemblies.Post("/:id/cancel", RequireRole(rolesManage...), assemblyHandler.Cancel)

	// Órdenes de compra
	purchases := protected.Group("/purchase-orders")
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC)
	purchases.Get("/", RequireRole(rolesAll...), purchaseHandler.List)
	purchases.Get("/:id", RequireRole(rolesAll...), purchaseHandler.GetByID)
	purchases.Post("/", RequireRole(rolesManage...), purchaseHandler.Create)
	purchases.Post("/:id/order", RequireRole(rolesManage...), purchaseHandler.MarkOrdered)
	purchases.Post("/:id/receive", RequireRole(rolesOperate...), purchaseHandler.Receive)
	purchases.Post("/:id/cancel", RequireRole(rolesManage...), purchaseHandler.Cancel)

	// Órdenes de venta
	sales := protected.Group("/sales-orders")
	salesHandler := NewSalesHandler(deps.SalesUC)
	sales.Get("/", RequireRole(rolesAll...), salesHandler.List)
	sales.Get("/:id", RequireRole(rolesAll...), salesHandler.GetByID)
	sales.Post("/", RequireRole(rolesManage...), salesHandler.Create)
	sales.Post("/:id/allocate", RequireRole(rolesManage...), salesHandler.Allocate)
	sales.Post("/:id/ship", RequireRole(rolesOperate...), salesHandler.Ship)
	sales.Post("/:id/cancel", RequireRole(rolesManage...), salesHandler.Cancel)

	// Escáner de piso
	scan := protected.Group("/scan")
	scannerHandler := NewScannerHandler(deps.ScannerUC)
	scan.Get("/lookup", RequireRole(rolesAll...), scannerHandler.Lookup)
	scan.Post("/receive", RequireRole(rolesOperate...), scannerHandler.Receive)
	scan.Post("/pick", RequireRole(rolesOperate...), scannerHandler.Pick)
	scan.Post("/adjust", RequireRole(rolesOperate...), scannerHandler.Adjust)
}
