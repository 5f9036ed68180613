package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSalesOrderRequest entrada para crear una orden de venta.
// La creación reserva inventario por cada línea.
type CreateSalesOrderRequest struct {
	CustomerName string                      `json:"customer_name" validate:"required,min=1,max=200"`
	Notes        string                      `json:"notes"`
	Items        []CreateSalesOrderItemInput `json:"items" validate:"required,min=1"`
}

// CreateSalesOrderItemInput línea de la orden de venta: de qué bodega sale el producto.
type CreateSalesOrderItemInput struct {
	ProductID   string          `json:"product_id" validate:"required"`
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"` // nil = precio de lista del producto
}

// ReturnItemsRequest body para registrar devoluciones sobre una orden entregada.
type ReturnItemsRequest struct {
	Items  map[string]decimal.Decimal `json:"items"` // item_id -> cantidad devuelta
	Reason string                     `json:"reason"`
}

// SalesOrderItemResponse salida de una línea de orden de venta.
type SalesOrderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ReturnedQty decimal.Decimal `json:"returned_quantity"`
}

// SalesOrderResponse salida de una orden de venta con sus items.
type SalesOrderResponse struct {
	ID           string                   `json:"id"`
	OrderNumber  string                   `json:"order_number"`
	CustomerName string                   `json:"customer_name"`
	Status       string                   `json:"status"`
	Notes        string                   `json:"notes,omitempty"`
	CreatedBy    string                   `json:"created_by,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Items        []SalesOrderItemResponse `json:"items"`
}

// SalesOrderListResponse lista paginada de órdenes de venta.
type SalesOrderListResponse struct {
	Items []SalesOrderResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}
