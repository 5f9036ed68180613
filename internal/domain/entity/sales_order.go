package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de venta.
const (
	SOStatusPending    = "pending"
	SOStatusProcessing = "processing"
	SOStatusShipped    = "shipped"
	SOStatusDelivered  = "delivered"
	SOStatusCancelled  = "cancelled"
)

// SalesOrder es la cabecera de una orden de venta. Al crearse reserva
// inventario; al despacharse consume lo reservado; al cancelarse lo libera.
type SalesOrder struct {
	ID           string
	OrderNumber  string // SO-NNNNNN
	CustomerName string
	Status       string
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []*SalesOrderItem
}

// SalesOrderItem es una línea de la orden; cada línea indica de qué bodega
// sale el producto. TotalPrice = Quantity * UnitPrice.
type SalesOrderItem struct {
	ID           string
	SalesOrderID string
	ProductID    string
	WarehouseID  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	ReturnedQty  decimal.Decimal // devoluciones acumuladas tras la entrega
}

// CanCancel indica si la orden admite cancelación (antes del despacho).
func (so *SalesOrder) CanCancel() bool {
	return so.Status == SOStatusPending || so.Status == SOStatusProcessing
}
