package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/almacen-api/internal/application/auth"
	"github.com/tu-usuario/almacen-api/internal/application/inventory"
	"github.com/tu-usuario/almacen-api/internal/application/purchasing"
	"github.com/tu-usuario/almacen-api/internal/application/sales"
	"github.com/tu-usuario/almacen-api/internal/application/transfer"
	"github.com/tu-usuario/almacen-api/internal/application/usecase"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC  *usecase.WarehouseUseCase
	ProductUC    *usecase.ProductUseCase
	AdjustmentUC *inventory.AdjustmentUseCase
	InventoryQry *inventory.QueryUseCase
	PurchaseUC   *purchasing.PurchaseOrderUseCase
	SalesUC      *sales.SalesOrderUseCase
	TransferUC   *transfer.StockTransferUseCase
	AuthUC       *auth.AuthUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Roles que pueden mutar inventario y catálogo
	stockWriters := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	// Warehouses (protegido; escritura solo admin)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", RequireRole(entity.RoleAdmin), warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", RequireRole(entity.RoleAdmin), warehouseHandler.Update)
	warehouses.Delete("/:id", RequireRole(entity.RoleAdmin), warehouseHandler.Deactivate)

	// Products (protegido; escritura admin o bodeguero)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", stockWriters, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", stockWriters, productHandler.Update)
	products.Delete("/:id", RequireRole(entity.RoleAdmin), productHandler.Deactivate)

	// Inventory (protegido; ajustes solo admin o bodeguero)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.AdjustmentUC, deps.InventoryQry)
	invGroup.Post("/adjustments", stockWriters, inventoryHandler.RegisterAdjustment)
	invGroup.Get("/warehouses/:warehouse_id", inventoryHandler.ListByWarehouse)
	invGroup.Get("/products/:product_id", inventoryHandler.ListByProduct)
	invGroup.Get("/reorder-list", inventoryHandler.GetReorderList)
	invGroup.Get("/transactions", inventoryHandler.ListTransactions)
	invGroup.Get("/transactions/reference/:reference_id", inventoryHandler.ListTransactionsByReference)

	// Purchase orders (protegido; mutaciones admin o bodeguero)
	purchases := protected.Group("/purchase-orders")
	purchaseHandler := NewPurchaseOrderHandler(deps.PurchaseUC)
	purchases.Post("/", stockWriters, purchaseHandler.Create)
	purchases.Get("/", purchaseHandler.List)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Post("/:id/send", stockWriters, purchaseHandler.Send)
	purchases.Post("/:id/receive", stockWriters, purchaseHandler.ReceiveItems)
	purchases.Post("/:id/cancel", stockWriters, purchaseHandler.Cancel)

	// Sales orders (protegido; el vendedor crea y gestiona sus ventas,
	// el despacho toca inventario y queda en manos de bodega)
	salesGroup := protected.Group("/sales-orders")
	salesHandler := NewSalesOrderHandler(deps.SalesUC)
	salesGroup.Post("/", salesHandler.Create)
	salesGroup.Get("/", salesHandler.List)
	salesGroup.Get("/:id", salesHandler.GetByID)
	salesGroup.Post("/:id/process", salesHandler.Process)
	salesGroup.Post("/:id/ship", stockWriters, salesHandler.Ship)
	salesGroup.Post("/:id/deliver", salesHandler.Deliver)
	salesGroup.Post("/:id/cancel", salesHandler.Cancel)
	salesGroup.Post("/:id/returns", stockWriters, salesHandler.ReturnItems)

	// Transfers (protegido; mutaciones admin o bodeguero)
	transfers := protected.Group("/transfers")
	transferHandler := NewStockTransferHandler(deps.TransferUC)
	transfers.Post("/", stockWriters, transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/dispatch", stockWriters, transferHandler.Dispatch)
	transfers.Post("/:id/complete", stockWriters, transferHandler.Complete)
	transfers.Post("/:id/cancel", stockWriters, transferHandler.Cancel)
}
