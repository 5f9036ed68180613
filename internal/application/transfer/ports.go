package transfer

import (
	"context"

	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del flujo de traslados atados a esa tx. Completar un traslado
// toca el ledger de dos bodegas: o se confirma todo o nada.
type TxRunner interface {
	RunTransfer(ctx context.Context, fn func(
		stRepo repository.StockTransferRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error) error
}
