package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	POStatusDraft     = "draft"
	POStatusSent      = "sent"
	POStatusPartial   = "partial"  // recepción parcial: algún item con 0 < recibido < pedido
	POStatusReceived  = "received" // todos los items recibidos por completo
	POStatusCancelled = "cancelled"
)

// PurchaseOrder es la cabecera de una orden de compra a un proveedor.
// Las recepciones aumentan el disponible en la bodega destino.
type PurchaseOrder struct {
	ID           string
	OrderNumber  string // PO-NNNNNN
	SupplierName string
	WarehouseID  string // bodega que recibe la mercancía
	Status       string
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []*PurchaseOrderItem
}

// PurchaseOrderItem es una línea de la orden. ReceivedQuantity solo crece
// y nunca supera Quantity.
type PurchaseOrderItem struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	ReceivedQuantity decimal.Decimal
}

// CanReceive indica si la orden admite recepciones (enviada o parcial).
func (po *PurchaseOrder) CanReceive() bool {
	return po.Status == POStatusSent || po.Status == POStatusPartial
}

// CanCancel indica si la orden admite cancelación. Una vez hay recepción
// parcial el inventario ya quedó comprometido y no se permite cancelar.
func (po *PurchaseOrder) CanCancel() bool {
	return po.Status == POStatusDraft || po.Status == POStatusSent
}

// ReceptionStatus calcula el estado de recepción según los items:
// received si todos completos, partial si hay algún avance, sent si nada.
func (po *PurchaseOrder) ReceptionStatus() string {
	allFull := true
	anyProgress := false
	for _, it := range po.Items {
		if it.ReceivedQuantity.GreaterThan(decimal.Zero) {
			anyProgress = true
		}
		if it.ReceivedQuantity.LessThan(it.Quantity) {
			allFull = false
		}
	}
	switch {
	case allFull && len(po.Items) > 0:
		return POStatusReceived
	case anyProgress:
		return POStatusPartial
	default:
		return POStatusSent
	}
}
