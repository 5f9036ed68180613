package inventory

import (
	"context"
	"time"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// QueryUseCase consultas de solo lectura sobre el ledger y el historial de
// transacciones. No requiere bloqueo: snapshot isolation estándar alcanza.
type QueryUseCase struct {
	invRepo repository.InventoryRepository
	txnRepo repository.TransactionRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(invRepo repository.InventoryRepository, txnRepo repository.TransactionRepository) *QueryUseCase {
	return &QueryUseCase{invRepo: invRepo, txnRepo: txnRepo}
}

// ListByWarehouse lista el inventario de una bodega con paginación.
func (uc *QueryUseCase) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]dto.InventoryRecordResponse, error) {
	list, err := uc.invRepo.ListByWarehouse(warehouseID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryRecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *ToInventoryRecordResponse(r))
	}
	return out, nil
}

// ListByProduct lista el inventario de un producto en todas las bodegas.
func (uc *QueryUseCase) ListByProduct(ctx context.Context, productID string) ([]dto.InventoryRecordResponse, error) {
	list, err := uc.invRepo.ListByProduct(productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryRecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *ToInventoryRecordResponse(r))
	}
	return out, nil
}

// ReorderList devuelve los SKUs en o bajo su punto de reorden con la cantidad
// sugerida de pedido. warehouseID vacío = stock agregado global.
func (uc *QueryUseCase) ReorderList(ctx context.Context, warehouseID string) ([]dto.ReorderSuggestionDTO, error) {
	rows, err := uc.invRepo.ListBelowReorder(warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReorderSuggestionDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ReorderSuggestionDTO{
			ProductID:    r.ProductID,
			SKU:          r.SKU,
			ProductName:  r.ProductName,
			WarehouseID:  r.WarehouseID,
			Available:    r.Available,
			ReorderLevel: r.ReorderLevel,
			SuggestedQty: r.ReorderQuantity,
		})
	}
	return out, nil
}

// TransactionsByProduct historial de auditoría de un producto.
func (uc *QueryUseCase) TransactionsByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]dto.TransactionResponse, error) {
	list, err := uc.txnRepo.ListByProduct(productID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	return toTransactionResponses(list), nil
}

// TransactionsByWarehouse historial de auditoría de una bodega.
func (uc *QueryUseCase) TransactionsByWarehouse(ctx context.Context, warehouseID string, from, to *time.Time, limit, offset int) ([]dto.TransactionResponse, error) {
	list, err := uc.txnRepo.ListByWarehouse(warehouseID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	return toTransactionResponses(list), nil
}

// TransactionsByReference transacciones originadas por una orden o traslado.
func (uc *QueryUseCase) TransactionsByReference(ctx context.Context, referenceID string) ([]dto.TransactionResponse, error) {
	list, err := uc.txnRepo.ListByReference(referenceID)
	if err != nil {
		return nil, err
	}
	return toTransactionResponses(list), nil
}

func toTransactionResponses(list []*entity.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.TransactionResponse{
			ID:          t.ID,
			ProductID:   t.ProductID,
			WarehouseID: t.WarehouseID,
			Type:        t.Type,
			Quantity:    t.Quantity,
			ReferenceID: t.ReferenceID,
			Reason:      t.Reason,
			PerformedBy: t.PerformedBy,
			CreatedAt:   t.CreatedAt,
		})
	}
	return out
}
