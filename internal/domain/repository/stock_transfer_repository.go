package repository

import "github.com/tu-usuario/almacen-api/internal/domain/entity"

// StockTransferRepository define el puerto de persistencia para traslados
// de stock entre bodegas (cabecera + items).
type StockTransferRepository interface {
	Create(st *entity.StockTransfer) error
	GetByID(id string) (*entity.StockTransfer, error)
	GetByIDForUpdate(id string) (*entity.StockTransfer, error)
	// UpdateStatus hace compare-and-swap sobre el estado: con dos Complete
	// concurrentes exactamente uno gana y el otro ve false.
	UpdateStatus(id, expected, next string) (bool, error)
	List(status string, limit, offset int) ([]*entity.StockTransfer, error)
	NextTransferNumber() (string, error)
}
