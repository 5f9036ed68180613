package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// ReorderRow fila del listado de reposición: inventario agregado de un
// producto contra su punto de reorden.
type ReorderRow struct {
	ProductID       string
	SKU             string
	ProductName     string
	WarehouseID     string
	Available       decimal.Decimal
	ReorderLevel    decimal.Decimal
	ReorderQuantity decimal.Decimal
}

// InventoryRepository define el puerto para consultar/actualizar el ledger
// de inventario por (producto, bodega). Usado dentro de transacciones para
// garantizar consistencia.
type InventoryRepository interface {
	Get(productID, warehouseID string) (*entity.InventoryRecord, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	// Si no existe, devuelve un registro en cero sin persistir.
	GetForUpdate(productID, warehouseID string) (*entity.InventoryRecord, error)
	Upsert(record *entity.InventoryRecord) error
	ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.InventoryRecord, error)
	ListByProduct(productID string) ([]*entity.InventoryRecord, error)
	// ListBelowReorder lista productos activos cuyo disponible está en o bajo
	// su punto de reorden. warehouseID vacío = stock agregado global.
	ListBelowReorder(warehouseID string) ([]*ReorderRow, error)
}
