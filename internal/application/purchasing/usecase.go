package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/inventory"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// PurchaseOrderUseCase ciclo de vida de órdenes de compra:
// draft → sent → partial → received, con cancelación solo antes de recibir.
// Las recepciones aumentan el disponible de la bodega destino y dejan una
// transacción restock por item, todo en una sola transacción de BD.
type PurchaseOrderUseCase struct {
	txRunner      TxRunner
	poRepo        repository.PurchaseOrderRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(
	txRunner TxRunner,
	poRepo repository.PurchaseOrderRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *PurchaseOrderUseCase {
	return &PurchaseOrderUseCase{
		txRunner:      txRunner,
		poRepo:        poRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// Create crea una orden de compra en borrador con sus items.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, userID string, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if in.SupplierName == "" || in.WarehouseID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	warehouse, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	po := &entity.PurchaseOrder{
		ID:           uuid.New().String(),
		SupplierName: in.SupplierName,
		WarehouseID:  in.WarehouseID,
		Status:       entity.POStatusDraft,
		Notes:        in.Notes,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, it := range in.Items {
		if it.ProductID == "" || !it.Quantity.GreaterThan(decimal.Zero) || it.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, domain.ErrNotFound
		}
		po.Items = append(po.Items, &entity.PurchaseOrderItem{
			ID:               uuid.New().String(),
			PurchaseOrderID:  po.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			ReceivedQuantity: decimal.Zero,
		})
	}

	// Cabecera + items en una sola transacción; el consecutivo PO-NNNNNN
	// sale de la secuencia dentro de la misma tx.
	err = uc.txRunner.RunPurchase(ctx, func(
		poRepo repository.PurchaseOrderRepository,
		_ repository.InventoryRepository,
		_ repository.TransactionRepository,
	) error {
		number, err := poRepo.NextOrderNumber()
		if err != nil {
			return err
		}
		po.OrderNumber = number
		return poRepo.Create(po)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

// Send pasa la orden de draft a sent (compare-and-swap sobre el estado).
func (uc *PurchaseOrderUseCase) Send(ctx context.Context, poID string) error {
	po, err := uc.poRepo.GetByID(poID)
	if err != nil {
		return err
	}
	if po == nil {
		return domain.ErrNotFound
	}
	if po.Status != entity.POStatusDraft {
		return domain.ErrInvalidTransition
	}
	ok, err := uc.poRepo.UpdateStatus(poID, entity.POStatusDraft, entity.POStatusSent)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}
	return nil
}

// ReceiveItems registra una recepción: por cada item con cantidad recibida,
// valida que no supere lo pedido, suma el disponible de la bodega destino y
// deja una transacción restock. Recalcula el estado (sent/partial/received).
// Cualquier item que falle aborta la recepción completa.
func (uc *PurchaseOrderUseCase) ReceiveItems(ctx context.Context, userID, poID string, in dto.ReceiveItemsRequest) (*dto.PurchaseOrderResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	var result *entity.PurchaseOrder
	err := uc.txRunner.RunPurchase(ctx, func(
		poRepo repository.PurchaseOrderRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error {
		po, err := poRepo.GetByIDForUpdate(poID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if !po.CanReceive() {
			return domain.ErrInvalidTransition
		}

		itemsByID := make(map[string]*entity.PurchaseOrderItem, len(po.Items))
		for _, it := range po.Items {
			itemsByID[it.ID] = it
		}

		for itemID, qty := range in.Items {
			if !qty.GreaterThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
			item, found := itemsByID[itemID]
			if !found {
				return domain.ErrNotFound
			}
			newReceived := item.ReceivedQuantity.Add(qty)
			// received_quantity nunca supera lo pedido
			if newReceived.GreaterThan(item.Quantity) {
				return domain.ErrInvalidInput
			}

			if _, err := inventory.AdjustStock(invRepo, item.ProductID, po.WarehouseID, qty, decimal.Zero); err != nil {
				return err
			}
			if err := txnRepo.Create(inventory.NewTransaction(
				item.ProductID, po.WarehouseID, entity.TxTypeRestock,
				qty, po.ID, userID, "",
			)); err != nil {
				return err
			}
			if err := poRepo.UpdateItemReceived(itemID, newReceived); err != nil {
				return err
			}
			item.ReceivedQuantity = newReceived
		}

		newStatus := po.ReceptionStatus()
		if newStatus != po.Status {
			ok, err := poRepo.UpdateStatus(po.ID, po.Status, newStatus)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrInvalidTransition
			}
			po.Status = newStatus
		}
		result = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(result), nil
}

// Cancel cancela la orden. Solo se permite en draft o sent: con recepción
// parcial el inventario ya quedó comprometido.
func (uc *PurchaseOrderUseCase) Cancel(ctx context.Context, poID string) error {
	return uc.txRunner.RunPurchase(ctx, func(
		poRepo repository.PurchaseOrderRepository,
		_ repository.InventoryRepository,
		_ repository.TransactionRepository,
	) error {
		po, err := poRepo.GetByIDForUpdate(poID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if !po.CanCancel() {
			return domain.ErrInvalidTransition
		}
		ok, err := poRepo.UpdateStatus(po.ID, po.Status, entity.POStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

// GetByID obtiene una orden de compra con sus items.
func (uc *PurchaseOrderUseCase) GetByID(ctx context.Context, poID string) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.poRepo.GetByID(poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	return toPurchaseOrderResponse(po), nil
}

// List lista órdenes de compra, opcionalmente filtradas por estado.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, status string, limit, offset int) (*dto.PurchaseOrderListResponse, error) {
	list, err := uc.poRepo.List(status, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		items = append(items, *toPurchaseOrderResponse(po))
	}
	return &dto.PurchaseOrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toPurchaseOrderResponse(po *entity.PurchaseOrder) *dto.PurchaseOrderResponse {
	if po == nil {
		return nil
	}
	items := make([]dto.PurchaseOrderItemResponse, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, dto.PurchaseOrderItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			ReceivedQuantity: it.ReceivedQuantity,
		})
	}
	return &dto.PurchaseOrderResponse{
		ID:           po.ID,
		OrderNumber:  po.OrderNumber,
		SupplierName: po.SupplierName,
		WarehouseID:  po.WarehouseID,
		Status:       po.Status,
		Notes:        po.Notes,
		CreatedBy:    po.CreatedBy,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		Items:        items,
	}
}
