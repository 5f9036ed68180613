package repository

import (
	"time"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// TransactionRepository define el puerto de persistencia para el registro
// de transacciones de inventario. Solo inserta: las filas nunca se
// actualizan ni se borran.
type TransactionRepository interface {
	Create(tx *entity.Transaction) error
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Transaction, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Transaction, error)
	ListByReference(referenceID string) ([]*entity.Transaction, error)
}
