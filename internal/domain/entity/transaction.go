package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción de inventario.
// Convención de signo: negativo = stock que sale de la bodega,
// positivo = stock que entra.
const (
	TxTypeRestock     = "restock"      // recepción de orden de compra
	TxTypeSale        = "sale"         // despacho de orden de venta
	TxTypeReturn      = "return"       // devolución de cliente
	TxTypeAdjustment  = "adjustment"   // ajuste manual o reversa
	TxTypeTransferIn  = "transfer_in"  // entrada por traslado
	TxTypeTransferOut = "transfer_out" // salida por traslado
)

// Transaction es el registro inmutable de un cambio de cantidad en el
// inventario. Solo se inserta, nunca se actualiza ni se borra: es la
// pista de auditoría del ledger.
type Transaction struct {
	ID          string
	ProductID   string
	WarehouseID string
	Type        string
	Quantity    decimal.Decimal // con signo
	ReferenceID string          // id de la orden o traslado que lo originó
	Reason      string
	PerformedBy string // UserID
	CreatedAt   time.Time
}
