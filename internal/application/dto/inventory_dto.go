package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterAdjustmentRequest body para POST /api/inventory/adjustments.
// Quantity con signo: positivo suma disponible, negativo resta.
type RegisterAdjustmentRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason"`
}

// InventoryRecordResponse salida de un registro de inventario.
type InventoryRecordResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Available   decimal.Decimal `json:"available_quantity"`
	Reserved    decimal.Decimal `json:"reserved_quantity"`
	Total       decimal.Decimal `json:"total_quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TransactionResponse salida de una transacción del registro de auditoría.
type TransactionResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	PerformedBy string          `json:"performed_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReorderSuggestionDTO representa un producto en o bajo su punto de reorden
// con la cantidad sugerida de pedido.
type ReorderSuggestionDTO struct {
	ProductID       string          `json:"product_id"`
	SKU             string          `json:"sku"`
	ProductName     string          `json:"product_name"`
	WarehouseID     string          `json:"warehouse_id,omitempty"`
	Available       decimal.Decimal `json:"available_quantity"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	SuggestedQty    decimal.Decimal `json:"suggested_order_qty"`
}
