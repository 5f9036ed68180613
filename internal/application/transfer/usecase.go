package transfer

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

// StockTransferUseCase ciclo de vida de traslados entre bodegas:
// pending → in_transit → completed, con cancelación antes de completar.
// El ledger solo se toca al completar: resta disponible en origen y suma en
// destino, dejando transfer_out/transfer_in por item en la misma transacción.
type StockTransferUseCase struct {
	txRunner      TxRunner
	stRepo        repository.StockTransferRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewStockTransferUseCase construye el caso de uso.
func NewStockTransferUseCase(
	txRunner TxRunner,
	stRepo repository.StockTransferRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *StockTransferUseCase {
	return &StockTransferUseCase{
		txRunner:      txRunner,
		stRepo:        stRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// Create crea un traslado en pending. Origen y destino deben existir y ser
// distintos; cada línea exige cantidad positiva.
func (uc *StockTransferUseCase) Create(ctx context.Context, userID string, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if in.FromWarehouseID == "" || in.ToWarehouseID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, domain.ErrInvalidInput
	}
	fromWh, err := uc.warehouseRepo.GetByID(in.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	toWh, err := uc.warehouseRepo.GetByID(in.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	if fromWh == nil || toWh == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	st := &entity.StockTransfer{
		ID:            uuid.New().String(),
		FromWarehouse: in.FromWarehouseID,
		ToWarehouse:   in.ToWarehouseID,
		Status:        entity.TransferStatusPending,
		Notes:         in.Notes,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, it := range in.Items {
		if it.ProductID == "" || !it.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, domain.ErrNotFound
		}
		st.Items = append(st.Items, &entity.StockTransferItem{
			ID:              uuid.New().String(),
			StockTransferID: st.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
		})
	}

	err = uc.txRunner.RunTransfer(ctx, func(
		stRepo repository.StockTransferRepository,
		_ repository.InventoryRepository,
		_ repository.TransactionRepository,
	) error {
		number, err := stRepo.NextTransferNumber()
		if err != nil {
			return err
		}
		st.TransferNumber = number
		return stRepo.Create(st)
	})
	if err != nil {
		return nil, err
	}
	return toTransferResponse(st), nil
}

// Dispatch pasa el traslado de pending a in_transit. Sin efecto sobre el ledger.
func (uc *StockTransferUseCase) Dispatch(ctx context.Context, stID string) error {
	st, err := uc.stRepo.GetByID(stID)
	if err != nil {
		return err
	}
	if st == nil {
		return domain.ErrNotFound
	}
	if st.Status != entity.TransferStatusPending {
		return domain.ErrInvalidTransition
	}
	ok, err := uc.stRepo.UpdateStatus(stID, entity.TransferStatusPending, entity.TransferStatusInTransit)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}
	return nil
}

// Complete completa el traslado: por item resta disponible en la bodega
// origen (falla con ErrInsufficientInventory si no alcanza) y lo suma en la
// destino, registrando transfer_out/transfer_in. El compare-and-swap sobre
// el estado garantiza que de dos Complete concurrentes exactamente uno gana.
func (uc *StockTransferUseCase) Complete(ctx context.Context, userID, stID string) error {
	return uc.txRunner.RunTransfer(ctx, func(
		stRepo repository.StockTransferRepository,
		invRepo repository.InventoryRepository,
		txnRepo repository.TransactionRepository,
	) error {
		st, err := stRepo.GetByIDForUpdate(stID)
		if err != nil {
			return err
		}
		if st == nil {
			return domain.ErrNotFound
		}
		if st.Status != entity.TransferStatusInTransit {
			return domain.ErrInvalidTransition
		}
		// CAS primero: si otra transacción ya completó, aborta sin tocar el ledger.
		ok, err := stRepo.UpdateStatus(st.ID, entity.TransferStatusInTransit, entity.TransferStatusCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		for _, item := range st.Items {
			if _, err := inventory.AdjustStock(invRepo, item.ProductID, st.FromWarehouse, item.Quantity.Neg(), decimal.Zero); err != nil {
				return err
			}
			if err := txnRepo.Create(inventory.NewTransaction(
				item.ProductID, st.FromWarehouse, entity.TxTypeTransferOut,
				item.Quantity.Neg(), st.ID, userID, "",
			)); err != nil {
				return err
			}
			if _, err := inventory.AdjustStock(invRepo, item.ProductID, st.ToWarehouse, item.Quantity, decimal.Zero); err != nil {
				return err
			}
			if err := txnRepo.Create(inventory.NewTransaction(
				item.ProductID, st.ToWarehouse, entity.TxTypeTransferIn,
				item.Quantity, st.ID, userID, "",
			)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Cancel cancela un traslado pending o in_transit. Sin reversa de inventario:
// antes de completed el ledger no ha sido tocado.
func (uc *StockTransferUseCase) Cancel(ctx context.Context, stID string) error {
	return uc.txRunner.RunTransfer(ctx, func(
		stRepo repository.StockTransferRepository,
		_ repository.InventoryRepository,
		_ repository.TransactionRepository,
	) error {
		st, err := stRepo.GetByIDForUpdate(stID)
		if err != nil {
			return err
		}
		if st == nil {
			return domain.ErrNotFound
		}
		if !st.CanCancel() {
			return domain.ErrInvalidTransition
		}
		ok, err := stRepo.UpdateStatus(st.ID, st.Status, entity.TransferStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

// GetByID obtiene un traslado con sus items.
func (uc *StockTransferUseCase) GetByID(ctx context.Context, stID string) (*dto.TransferResponse, error) {
	st, err := uc.stRepo.GetByID(stID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return toTransferResponse(st), nil
}

// List lista traslados, opcionalmente filtrados por estado.
func (uc *StockTransferUseCase) List(ctx context.Context, status string, limit, offset int) (*dto.TransferListResponse, error) {
	list, err := uc.stRepo.List(status, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, st := range list {
		items = append(items, *toTransferResponse(st))
	}
	return &dto.TransferListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toTransferResponse(st *entity.StockTransfer) *dto.TransferResponse {
	if st == nil {
		return nil
	}
	items := make([]dto.TransferItemResponse, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, dto.TransferItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return &dto.TransferResponse{
		ID:             st.ID,
		TransferNumber: st.TransferNumber,
		FromWarehouse:  st.FromWarehouse,
		ToWarehouse:    st.ToWarehouse,
		Status:         st.Status,
		Notes:          st.Notes,
		CreatedBy:      st.CreatedBy,
		CreatedAt:      st.CreatedAt,
		UpdatedAt:      st.UpdatedAt,
		Items:          items,
	}
}
