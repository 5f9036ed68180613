package sales

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

// Motivo registrado en la transacción de reversa al cancelar una orden.
const cancelReason = "Orden cancelada - inventario restaurado"

// SalesOrderUseCase ciclo de vida de órdenes de venta:
// pending → processing → shipped → delivered, con cancelación antes del
// despacho. Crear reserva inventario (disponible → reservado); despachar
// consume lo reservado; cancelar lo devuelve al disponible.
type SalesOrderUseCase struct {
	txRunner      TxRunner
	soRepo        repository.SalesOrderRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewSalesOrderUseCase construye el caso de uso.
func NewSalesOrderUseCase(
	txRunner TxRunner,
	soRepo repository.SalesOrderRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *SalesOrderUseCase {
	return &SalesOrderUseCase{
		txRunner:      txRunner,
		soRepo:        soRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// Create crea la orden en pending y reserva inventario por cada línea
// (disponible -qty, reservado +qty) en una sola transacción. Si alguna línea
// no tiene disponible suficiente, no se crea nada.
func (uc *SalesOrderUseCase) Create(ctx context.Context, userID string, in dto.CreateSalesOrderRequest) (*dto.SalesOrderResponse, error) {
	if in.CustomerName == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	so := &entity.SalesOrder{
		ID:           uuid.New().String(),
		CustomerName: in.CustomerName,
		Status:       entity.SOStatusPending,
		Notes:        in.Notes,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.WarehouseID == "" || !it.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, domain.ErrNotFound
		}
		warehouse, err := uc.warehouseRepo.GetByID(it.WarehouseID)
		if err != nil {
			return nil, err
		}
		if warehouse == nil {
			return nil, domain.ErrNotFound
		}
		unitPrice := product.UnitPrice
		if it.UnitPrice != nil {
			if it.UnitPrice.IsNegative() {
				return nil, domain.ErrInvalidInput
			}
			unitPrice = *it.UnitPrice
		}
		so.Items = append(so.Items, &entity.SalesOrderItem{
			ID:           uuid.New().String(),
			SalesOrderID: so.ID,
			ProductID:    it.ProductID,
			WarehouseID:  it.WarehouseID,
			Quantity:     it.Quantity,
			UnitPrice:    unitPrice,
			TotalPrice:   it.Quantity.Mul(unitPrice),
			ReturnedQty:  decimal.Zero,
		})
	}

	err := uc.txRunner.RunSales(ctx, func(
		soRepo repository.SalesOrderRepository,
		invRepo repository.InventoryRepository,
		_ repository.TransactionRepository,
	) error {
		number, err := soRepo.NextOrderNumber()
		if err != nil {
			return err
		}
		so.OrderNumber = number
		if err := soRepo.Create(so); err != nil {
			return err
		}
		// Reserva: mueve disponible a reservado; el total no cambia, por eso
		// no se registra transacción de auditoría aquí.
		for _, item := range so.Items {
			if _, err := inventory.AdjustStock(invRepo, item.ProductID, item.WarehouseID, item.Quantity.Neg(), item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSalesOrderResponse(so), nil
}

// Process pasa la orden de pending a processing. Sin efecto sobre el ledger.
func (uc *SalesOrderUseCase) Process(ctx context.Context, soID string) error {
	return uc.statusOnly(ctx, soID, entity.SOStatusPending, entity.SOStatusProcessing)
}

// Ship despacha la orden: por cada línea consume lo reservado (reservado -qty)
// y registra una transacción sale de -qty. Todo o nada; si alguna línea no
// tiene reservado suficiente no se persiste ningún cambio.
func (uc *SalesOrderUseCase) Ship(ctx context.Context, userID, soID string) error {
	return uc.txRunner.RunSales(ctx, func(
		soRepo repository.SalesOrderRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error {
		so, err := soRepo.GetByIDForUpdate(soID)
		if err != nil {
			return err
		}
		if so == nil {
			return domain.ErrNotFound
		}
		if so.Status != entity.SOStatusProcessing {
			return domain.ErrInvalidTransition
		}
		for _, item := range so.Items {
			if _, err := inventory.AdjustStock(invRepo, item.ProductID, item.WarehouseID, decimal.Zero, item.Quantity.Neg()); err != nil {
				return err
			}
			if err := txnRepo.Create(inventory.NewTransaction(
				item.ProductID, item.WarehouseID, entity.TxTypeSale,
				item.Quantity.Neg(), so.ID, userID, "",
			)); err != nil {
				return err
			}
		}
		ok, err := soRepo.UpdateStatus(so.ID, entity.SOStatusProcessing, entity.SOStatusShipped)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

// Deliver pasa la orden de shipped a delivered. Sin efecto sobre el ledger.
func (uc *SalesOrderUseCase) Deliver(ctx context.Context, soID string) error {
	return uc.statusOnly(ctx, soID, entity.SOStatusShipped, entity.SOStatusDelivered)
}

// Cancel cancela una orden pending o processing restaurando el inventario:
// disponible +qty y reservado -qty por línea, con transacción adjustment
// de +qty por cada una.
func (uc *SalesOrderUseCase) Cancel(ctx context.Context, userID, soID string) error {
	return uc.txRunner.RunSales(ctx, func(
		soRepo repository.SalesOrderRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error {
		so, err := soRepo.GetByIDForUpdate(soID)
		if err != nil {
			return err
		}
		if so == nil {
			return domain.ErrNotFound
		}
		if !so.CanCancel() {
			return domain.ErrInvalidTransition
		}
		for _, item := range so.Items {
			if _, err := inventory.AdjustStock(invRepo, item.ProductID, item.WarehouseID, item.Quantity, item.Quantity.Neg()); err != nil {
				return err
			}
			if err := txnRepo.Create(inventory.NewTransaction(
				item.ProductID, item.WarehouseID, entity.TxTypeAdjustment,
				item.Quantity, so.ID, userID, cancelReason,
			)); err != nil {
				return err
			}
		}
		ok, err := soRepo.UpdateStatus(so.ID, so.Status, entity.SOStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

// ReturnItems registra devoluciones sobre una orden entregada: disponible
// +qty por línea devuelta y transacción return de +qty. La cantidad devuelta
// acumulada nunca supera lo vendido.
func (uc *SalesOrderUseCase) ReturnItems(ctx context.Context, userID, soID string, in dto.ReturnItemsRequest) error {
	if len(in.Items) == 0 {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunSales(ctx, func(
		soRepo repository.SalesOrderRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error {
		so, err := soRepo.GetByIDForUpdate(soID)
		if err != nil {
			return err
		}
		if so == nil {
			return domain.ErrNotFound
		}
		if so.Status != entity.SOStatusDelivered {
			return domain.ErrInvalidTransition
		}
		itemsByID := make(map[string]*entity.SalesOrderItem, len(so.Items))
		for _, it := range so.Items {
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
			newReturned := item.ReturnedQty.Add(qty)
			if newReturned.GreaterThan(item.Quantity) {
				return domain.ErrInvalidInput
			}
			if _, err := inventory.AdjustStock(invRepo, item.ProductID, item.WarehouseID, qty, decimal.Zero); err != nil {
				return err
			}
			if err := txnRepo.Create(inventory.NewTransaction(
				item.ProductID, item.WarehouseID, entity.TxTypeReturn,
				qty, so.ID, userID, in.Reason,
			)); err != nil {
				return err
			}
			if err := soRepo.UpdateItemReturned(itemID, newReturned); err != nil {
				return err
			}
			item.ReturnedQty = newReturned
		}
		return nil
	})
}

// GetByID obtiene una orden de venta con sus items.
func (uc *SalesOrderUseCase) GetByID(ctx context.Context, soID string) (*dto.SalesOrderResponse, error) {
	so, err := uc.soRepo.GetByID(soID)
	if err != nil {
		return nil, err
	}
	if so == nil {
		return nil, domain.ErrNotFound
	}
	return toSalesOrderResponse(so), nil
}

// List lista órdenes de venta, opcionalmente filtradas por estado.
func (uc *SalesOrderUseCase) List(ctx context.Context, status string, limit, offset int) (*dto.SalesOrderListResponse, error) {
	list, err := uc.soRepo.List(status, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SalesOrderResponse, 0, len(list))
	for _, so := range list {
		items = append(items, *toSalesOrderResponse(so))
	}
	return &dto.SalesOrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// statusOnly ejecuta una transición sin efecto sobre el ledger vía
// compare-and-swap directo sobre la cabecera.
func (uc *SalesOrderUseCase) statusOnly(ctx context.Context, soID, expected, next string) error {
	so, err := uc.soRepo.GetByID(soID)
	if err != nil {
		return err
	}
	if so == nil {
		return domain.ErrNotFound
	}
	if so.Status != expected {
		return domain.ErrInvalidTransition
	}
	ok, err := uc.soRepo.UpdateStatus(soID, expected, next)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}
	return nil
}

func toSalesOrderResponse(so *entity.SalesOrder) *dto.SalesOrderResponse {
	if so == nil {
		return nil
	}
	items := make([]dto.SalesOrderItemResponse, 0, len(so.Items))
	for _, it := range so.Items {
		items = append(items, dto.SalesOrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			WarehouseID: it.WarehouseID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			ReturnedQty: it.ReturnedQty,
		})
	}
	return &dto.SalesOrderResponse{
		ID:           so.ID,
		OrderNumber:  so.OrderNumber,
		CustomerName: so.CustomerName,
		Status:       so.Status,
		Notes:        so.Notes,
		CreatedBy:    so.CreatedBy,
		CreatedAt:    so.CreatedAt,
		UpdatedAt:    so.UpdatedAt,
		Items:        items,
	}
}
