package purchasing

import (
	"context"

	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del flujo de compras atados a esa tx. Una recepción toca la
// orden, el ledger y el registro de transacciones: o se confirma todo o nada.
type TxRunner interface {
	RunPurchase(ctx context.Context, fn func(
		poRepo repository.PurchaseOrderRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error) error
}
