package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// PurchaseOrderRepository define el puerto de persistencia para órdenes de
// compra (cabecera + items).
type PurchaseOrderRepository interface {
	Create(po *entity.PurchaseOrder) error
	GetByID(id string) (*entity.PurchaseOrder, error)
	// GetByIDForUpdate bloquea la cabecera (SELECT FOR UPDATE) y carga los items.
	GetByIDForUpdate(id string) (*entity.PurchaseOrder, error)
	// UpdateStatus hace compare-and-swap sobre el estado: solo avanza si el
	// estado actual es expected. Devuelve false si ninguna fila cambió.
	UpdateStatus(id, expected, next string) (bool, error)
	UpdateItemReceived(itemID string, received decimal.Decimal) error
	List(status string, limit, offset int) ([]*entity.PurchaseOrder, error)
	NextOrderNumber() (string, error)
}
