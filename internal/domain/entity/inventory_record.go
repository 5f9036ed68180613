package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/domain"
)

// InventoryRecord representa el inventario actual de un producto en una bodega.
// Invariante: Total = Available + Reserved, y ninguna cantidad es negativa.
// Se crea de forma perezosa con cantidades en cero al primer movimiento.
type InventoryRecord struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal // disponible para venta/traslado
	Reserved    decimal.Decimal // apartado para órdenes no despachadas
	Total       decimal.Decimal // Available + Reserved
	UpdatedAt   time.Time
}

// NewInventoryRecord crea un registro en cero para (producto, bodega).
func NewInventoryRecord(productID, warehouseID string) *InventoryRecord {
	return &InventoryRecord{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Available:   decimal.Zero,
		Reserved:    decimal.Zero,
		Total:       decimal.Zero,
	}
}

// Apply aplica deltas sobre disponible y reservado manteniendo el invariante.
// Retorna ErrInsufficientInventory si alguna cantidad quedaría negativa;
// en ese caso el registro no se modifica.
func (r *InventoryRecord) Apply(availableDelta, reservedDelta decimal.Decimal) error {
	newAvailable := r.Available.Add(availableDelta)
	newReserved := r.Reserved.Add(reservedDelta)
	if newAvailable.IsNegative() || newReserved.IsNegative() {
		return domain.ErrInsufficientInventory
	}
	r.Available = newAvailable
	r.Reserved = newReserved
	r.Total = newAvailable.Add(newReserved)
	return nil
}
