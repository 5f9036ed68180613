package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseOrderRequest entrada para crear una orden de compra en borrador.
type CreatePurchaseOrderRequest struct {
	SupplierName string                          `json:"supplier_name" validate:"required,min=1,max=200"`
	WarehouseID  string                          `json:"warehouse_id" validate:"required"`
	Notes        string                          `json:"notes"`
	Items        []CreatePurchaseOrderItemInput  `json:"items" validate:"required,min=1"`
}

// CreatePurchaseOrderItemInput línea de la orden de compra.
type CreatePurchaseOrderItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ReceiveItemsRequest body para registrar una recepción: cantidades recibidas por item.
type ReceiveItemsRequest struct {
	Items map[string]decimal.Decimal `json:"items"` // item_id -> cantidad recibida
}

// PurchaseOrderItemResponse salida de una línea de orden de compra.
type PurchaseOrderItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

// PurchaseOrderResponse salida de una orden de compra con sus items.
type PurchaseOrderResponse struct {
	ID           string                      `json:"id"`
	OrderNumber  string                      `json:"order_number"`
	SupplierName string                      `json:"supplier_name"`
	WarehouseID  string                      `json:"warehouse_id"`
	Status       string                      `json:"status"`
	Notes        string                      `json:"notes,omitempty"`
	CreatedBy    string                      `json:"created_by,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	Items        []PurchaseOrderItemResponse `json:"items"`
}

// PurchaseOrderListResponse lista paginada de órdenes de compra.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}
