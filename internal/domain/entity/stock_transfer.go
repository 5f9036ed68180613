package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un traslado entre bodegas.
const (
	TransferStatusPending   = "pending"
	TransferStatusInTransit = "in_transit"
	TransferStatusCompleted = "completed"
	TransferStatusCancelled = "cancelled"
)

// StockTransfer es la cabecera de un traslado de stock entre dos bodegas.
// El inventario solo se mueve al completar: antes de eso la cancelación
// no requiere reversa alguna.
type StockTransfer struct {
	ID             string
	TransferNumber string // TR-NNNNNN
	FromWarehouse  string
	ToWarehouse    string
	Status         string
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []*StockTransferItem
}

// StockTransferItem es una línea del traslado; origen y destino vienen
// de la cabecera.
type StockTransferItem struct {
	ID              string
	StockTransferID string
	ProductID       string
	Quantity        decimal.Decimal
}

// CanCancel indica si el traslado admite cancelación (antes de completarse).
func (st *StockTransfer) CanCancel() bool {
	return st.Status == TransferStatusPending || st.Status == TransferStatusInTransit
}
