package sales

import (
	"context"

	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del flujo de ventas atados a esa tx. Despacho y cancelación
// tocan varias filas del ledger: o se confirma todo o nada.
type TxRunner interface {
	RunSales(ctx context.Context, fn func(
		soRepo repository.SalesOrderRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error) error
}
