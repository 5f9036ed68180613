package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// SalesOrderRepository define el puerto de persistencia para órdenes de
// venta (cabecera + items).
type SalesOrderRepository interface {
	Create(so *entity.SalesOrder) error
	GetByID(id string) (*entity.SalesOrder, error)
	GetByIDForUpdate(id string) (*entity.SalesOrder, error)
	// UpdateStatus hace compare-and-swap sobre el estado (ver PurchaseOrderRepository).
	UpdateStatus(id, expected, next string) (bool, error)
	UpdateItemReturned(itemID string, returned decimal.Decimal) error
	List(status string, limit, offset int) ([]*entity.SalesOrder, error)
	NextOrderNumber() (string, error)
}
