package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransferRequest entrada para crear un traslado entre bodegas.
type CreateTransferRequest struct {
	FromWarehouseID string                     `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string                     `json:"to_warehouse_id" validate:"required"`
	Notes           string                     `json:"notes"`
	Items           []CreateTransferItemInput  `json:"items" validate:"required,min=1"`
}

// CreateTransferItemInput línea del traslado.
type CreateTransferItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// TransferItemResponse salida de una línea de traslado.
type TransferItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// TransferResponse salida de un traslado con sus items.
type TransferResponse struct {
	ID             string                 `json:"id"`
	TransferNumber string                 `json:"transfer_number"`
	FromWarehouse  string                 `json:"from_warehouse_id"`
	ToWarehouse    string                 `json:"to_warehouse_id"`
	Status         string                 `json:"status"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedBy      string                 `json:"created_by,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Items          []TransferItemResponse `json:"items"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
