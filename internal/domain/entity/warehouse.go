package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
// Origen/destino de toda entrada, salida o traslado de stock.
type Warehouse struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
