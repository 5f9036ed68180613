package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// AdjustStock aplica deltas sobre disponible/reservado de (producto, bodega)
// dentro de la transacción del caller: bloquea la fila (SELECT FOR UPDATE),
// crea el registro en cero si no existe, valida que ninguna cantidad quede
// negativa y persiste los nuevos totales.
//
// El caller es responsable de registrar la Transaction correspondiente en la
// misma transacción de BD.
func AdjustStock(
	invRepo repository.InventoryRepository,
	productID, warehouseID string,
	availableDelta, reservedDelta decimal.Decimal,
) (*entity.InventoryRecord, error) {
	record, err := invRepo.GetForUpdate(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if err := record.Apply(availableDelta, reservedDelta); err != nil {
		return nil, err
	}
	record.UpdatedAt = time.Now()
	if err := invRepo.Upsert(record); err != nil {
		return nil, err
	}
	return record, nil
}

// NewTransaction arma una fila de auditoría con ID y CreatedAt asignados.
func NewTransaction(productID, warehouseID, txType string, quantity decimal.Decimal, referenceID, performedBy, reason string) *entity.Transaction {
	return &entity.Transaction{
		ID:          newID(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        txType,
		Quantity:    quantity,
		ReferenceID: referenceID,
		Reason:      reason,
		PerformedBy: performedBy,
		CreatedAt:   time.Now(),
	}
}
