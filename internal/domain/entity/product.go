package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (multi-bodega).
// El stock se maneja por bodega en InventoryRecord, nunca aquí.
type Product struct {
	ID              string
	SKU             string // código único
	Name            string
	Description     string
	UnitPrice       decimal.Decimal // precio de venta
	CostPrice       decimal.Decimal // costo de compra
	ReorderLevel    decimal.Decimal // punto de reorden
	ReorderQuantity decimal.Decimal // cantidad sugerida de pedido
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
