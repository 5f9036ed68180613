package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

func newID() string { return uuid.New().String() }

// AdjustmentUseCase registra ajustes manuales de inventario (conteos físicos,
// mermas, correcciones) de forma transaccional: ajuste del ledger + fila de
// auditoría en la misma transacción.
type AdjustmentUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// RegisterAdjustment aplica un ajuste con signo al disponible de una bodega.
// Cantidad cero o sin motivo es entrada inválida; si el ajuste negativo deja
// el disponible bajo cero falla con ErrInsufficientInventory y no escribe nada.
func (uc *AdjustmentUseCase) RegisterAdjustment(ctx context.Context, userID string, in dto.RegisterAdjustmentRequest) (*dto.InventoryRecordResponse, error) {
	if in.ProductID == "" || in.WarehouseID == "" || in.Quantity.IsZero() || in.Reason == "" {
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	warehouse, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}

	var updated *entity.InventoryRecord
	err = uc.txRunner.Run(ctx, func(
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error {
		record, err := AdjustStock(invRepo, in.ProductID, in.WarehouseID, in.Quantity, decimal.Zero)
		if err != nil {
			return err
		}
		if err := txnRepo.Create(NewTransaction(
			in.ProductID, in.WarehouseID, entity.TxTypeAdjustment,
			in.Quantity, "", userID, in.Reason,
		)); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToInventoryRecordResponse(updated), nil
}

// ToInventoryRecordResponse mapea la entidad al DTO de salida.
func ToInventoryRecordResponse(r *entity.InventoryRecord) *dto.InventoryRecordResponse {
	if r == nil {
		return nil
	}
	return &dto.InventoryRecordResponse{
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Available:   r.Available,
		Reserved:    r.Reserved,
		Total:       r.Total,
		UpdatedAt:   r.UpdatedAt,
	}
}
