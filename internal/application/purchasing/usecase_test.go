package purchasing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/purchasing"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. El runner copia el estado antes del callback y lo
// restaura si falla, imitando el rollback de la transacción real.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	orders  map[string]*entity.PurchaseOrder
	records map[string]*entity.InventoryRecord // productID|warehouseID
	txns    []*entity.Transaction
	seq     int
}

func newMemStore() *memStore {
	return &memStore{
		orders:  map[string]*entity.PurchaseOrder{},
		records: map[string]*entity.InventoryRecord{},
	}
}

func ledgerKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.seq = s.seq
	for id, po := range s.orders {
		c := *po
		c.Items = nil
		for _, it := range po.Items {
			ci := *it
			c.Items = append(c.Items, &ci)
		}
		cp.orders[id] = &c
	}
	for k, r := range s.records {
		c := *r
		cp.records[k] = &c
	}
	cp.txns = append(cp.txns, s.txns...)
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.orders = from.orders
	s.records = from.records
	s.txns = from.txns
	s.seq = from.seq
}

type fakePORepo struct{ s *memStore }

func (r *fakePORepo) Create(po *entity.PurchaseOrder) error {
	r.s.orders[po.ID] = po
	return nil
}

func (r *fakePORepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	return r.s.orders[id], nil
}

func (r *fakePORepo) GetByIDForUpdate(id string) (*entity.PurchaseOrder, error) {
	return r.s.orders[id], nil
}

func (r *fakePORepo) UpdateStatus(id, expected, next string) (bool, error) {
	po, ok := r.s.orders[id]
	if !ok || po.Status != expected {
		return false, nil
	}
	po.Status = next
	po.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePORepo) UpdateItemReceived(itemID string, received decimal.Decimal) error {
	for _, po := range r.s.orders {
		for _, it := range po.Items {
			if it.ID == itemID {
				it.ReceivedQuantity = received
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *fakePORepo) List(status string, limit, offset int) ([]*entity.PurchaseOrder, error) {
	var out []*entity.PurchaseOrder
	for _, po := range r.s.orders {
		if status == "" || po.Status == status {
			out = append(out, po)
		}
	}
	return out, nil
}

func (r *fakePORepo) NextOrderNumber() (string, error) {
	r.s.seq++
	return "PO-000001", nil
}

type fakeInvRepo struct{ s *memStore }

func (r *fakeInvRepo) Get(productID, warehouseID string) (*entity.InventoryRecord, error) {
	return r.s.records[ledgerKey(productID, warehouseID)], nil
}

func (r *fakeInvRepo) GetForUpdate(productID, warehouseID string) (*entity.InventoryRecord, error) {
	if rec, ok := r.s.records[ledgerKey(productID, warehouseID)]; ok {
		return rec, nil
	}
	return entity.NewInventoryRecord(productID, warehouseID), nil
}

func (r *fakeInvRepo) Upsert(record *entity.InventoryRecord) error {
	r.s.records[ledgerKey(record.ProductID, record.WarehouseID)] = record
	return nil
}

func (r *fakeInvRepo) ListByWarehouse(string, int, int) ([]*entity.InventoryRecord, error) {
	return nil, nil
}
func (r *fakeInvRepo) ListByProduct(string) ([]*entity.InventoryRecord, error) { return nil, nil }
func (r *fakeInvRepo) ListBelowReorder(string) ([]*repository.ReorderRow, error) {
	return nil, nil
}

type fakeTxnRepo struct{ s *memStore }

func (r *fakeTxnRepo) Create(tx *entity.Transaction) error {
	r.s.txns = append(r.s.txns, tx)
	return nil
}
func (r *fakeTxnRepo) ListByProduct(string, *time.Time, *time.Time, int, int) ([]*entity.Transaction, error) {
	return nil, nil
}
func (r *fakeTxnRepo) ListByWarehouse(string, *time.Time, *time.Time, int, int) ([]*entity.Transaction, error) {
	return nil, nil
}
func (r *fakeTxnRepo) ListByReference(referenceID string) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, tx := range r.s.txns {
		if tx.ReferenceID == referenceID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeRunner struct{ s *memStore }

func (f *fakeRunner) RunPurchase(_ context.Context, fn func(
	repository.PurchaseOrderRepository,
	repository.InventoryRepository,
	repository.TransactionRepository,
) error) error {
	snap := f.s.snapshot()
	if err := fn(&fakePORepo{f.s}, &fakeInvRepo{f.s}, &fakeTxnRepo{f.s}); err != nil {
		f.s.restore(snap)
		return err
	}
	return nil
}

type fakeProductRepo struct{ products map[string]*entity.Product }

func (r *fakeProductRepo) Create(*entity.Product) error { return nil }
func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}
func (r *fakeProductRepo) GetBySKU(string) (*entity.Product, error) { return nil, nil }
func (r *fakeProductRepo) Update(*entity.Product) error             { return nil }
func (r *fakeProductRepo) List(bool, int, int) ([]*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) Deactivate(string) error { return nil }

type fakeWarehouseRepo struct{ warehouses map[string]*entity.Warehouse }

func (r *fakeWarehouseRepo) Create(*entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.warehouses[id], nil
}
func (r *fakeWarehouseRepo) Update(*entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) List(int, int) ([]*entity.Warehouse, error) {
	return nil, nil
}
func (r *fakeWarehouseRepo) Deactivate(string) error { return nil }

// ──────────────────────────────────────────────────────────────────────────────
// Setup
// ──────────────────────────────────────────────────────────────────────────────

func setup() (*purchasing.PurchaseOrderUseCase, *memStore) {
	store := newMemStore()
	products := &fakeProductRepo{products: map[string]*entity.Product{
		"p1": {ID: "p1", SKU: "SKU-1", Name: "Tornillos", IsActive: true},
		"p2": {ID: "p2", SKU: "SKU-2", Name: "Tuercas", IsActive: true},
	}}
	warehouses := &fakeWarehouseRepo{warehouses: map[string]*entity.Warehouse{
		"w1": {ID: "w1", Name: "Bodega Central", IsActive: true},
	}}
	uc := purchasing.NewPurchaseOrderUseCase(&fakeRunner{store}, &fakePORepo{store}, products, warehouses)
	return uc, store
}

func createSentOrder(t *testing.T, uc *purchasing.PurchaseOrderUseCase) *dto.PurchaseOrderResponse {
	t.Helper()
	out, err := uc.Create(context.Background(), "u1", dto.CreatePurchaseOrderRequest{
		SupplierName: "Proveedor SA",
		WarehouseID:  "w1",
		Items: []dto.CreatePurchaseOrderItemInput{
			{ProductID: "p1", Quantity: d("10"), UnitPrice: d("2.50")},
			{ProductID: "p2", Quantity: d("4"), UnitPrice: d("1.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, entity.POStatusDraft, out.Status)
	require.NoError(t, uc.Send(context.Background(), out.ID))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_Valida(t *testing.T) {
	uc, _ := setup()
	ctx := context.Background()

	t.Run("cantidad cero es inválida", func(t *testing.T) {
		_, err := uc.Create(ctx, "u1", dto.CreatePurchaseOrderRequest{
			SupplierName: "Proveedor SA",
			WarehouseID:  "w1",
			Items:        []dto.CreatePurchaseOrderItemInput{{ProductID: "p1", Quantity: d("0")}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("producto inexistente", func(t *testing.T) {
		_, err := uc.Create(ctx, "u1", dto.CreatePurchaseOrderRequest{
			SupplierName: "Proveedor SA",
			WarehouseID:  "w1",
			Items:        []dto.CreatePurchaseOrderItemInput{{ProductID: "nope", Quantity: d("1")}},
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("bodega inexistente", func(t *testing.T) {
		_, err := uc.Create(ctx, "u1", dto.CreatePurchaseOrderRequest{
			SupplierName: "Proveedor SA",
			WarehouseID:  "nope",
			Items:        []dto.CreatePurchaseOrderItemInput{{ProductID: "p1", Quantity: d("1")}},
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSend_SoloDesdeDraft(t *testing.T) {
	uc, _ := setup()
	ctx := context.Background()
	out := createSentOrder(t, uc)

	// Segundo Send sobre la orden ya enviada
	err := uc.Send(ctx, out.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReceiveItems_RecepcionParcialYCompleta(t *testing.T) {
	uc, store := setup()
	ctx := context.Background()
	out := createSentOrder(t, uc)
	itemP1 := out.Items[0].ID
	itemP2 := out.Items[1].ID

	// Recepción parcial: 6 de 10 del primer item
	res, err := uc.ReceiveItems(ctx, "u1", out.ID, dto.ReceiveItemsRequest{
		Items: map[string]decimal.Decimal{itemP1: d("6")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartial, res.Status)

	rec := store.records[ledgerKey("p1", "w1")]
	require.NotNil(t, rec, "la recepción crea el registro de inventario")
	assert.True(t, rec.Available.Equal(d("6")))
	assert.True(t, rec.Reserved.IsZero())

	// Transacción restock con referencia a la orden
	require.Len(t, store.txns, 1)
	assert.Equal(t, entity.TxTypeRestock, store.txns[0].Type)
	assert.True(t, store.txns[0].Quantity.Equal(d("6")))
	assert.Equal(t, out.ID, store.txns[0].ReferenceID)
	assert.Equal(t, "u1", store.txns[0].PerformedBy)

	// Completar: el resto del primer item y todo el segundo
	res, err = uc.ReceiveItems(ctx, "u1", out.ID, dto.ReceiveItemsRequest{
		Items: map[string]decimal.Decimal{itemP1: d("4"), itemP2: d("4")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusReceived, res.Status)
	assert.True(t, store.records[ledgerKey("p1", "w1")].Available.Equal(d("10")))
	assert.True(t, store.records[ledgerKey("p2", "w1")].Available.Equal(d("4")))
	assert.Len(t, store.txns, 3)
}

func TestReceiveItems_SobreRecepcion_Rechazada(t *testing.T) {
	uc, store := setup()
	ctx := context.Background()
	out := createSentOrder(t, uc)
	itemP1 := out.Items[0].ID

	_, err := uc.ReceiveItems(ctx, "u1", out.ID, dto.ReceiveItemsRequest{
		Items: map[string]decimal.Decimal{itemP1: d("11")}, // pedidos 10
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Nada quedó escrito
	assert.Nil(t, store.records[ledgerKey("p1", "w1")])
	assert.Empty(t, store.txns)
	assert.Equal(t, entity.POStatusSent, store.orders[out.ID].Status)
}

func TestReceiveItems_ItemQueFalla_AbortaTodo(t *testing.T) {
	uc, store := setup()
	ctx := context.Background()
	out := createSentOrder(t, uc)
	itemP1 := out.Items[0].ID
	itemP2 := out.Items[1].ID

	// p1 válido, p2 sobre-recepción: la transacción entera debe revertirse
	_, err := uc.ReceiveItems(ctx, "u1", out.ID, dto.ReceiveItemsRequest{
		Items: map[string]decimal.Decimal{itemP1: d("5"), itemP2: d("99")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Nil(t, store.records[ledgerKey("p1", "w1")], "el item válido tampoco debe persistir")
	assert.Nil(t, store.records[ledgerKey("p2", "w1")])
	assert.Empty(t, store.txns)
	for _, it := range store.orders[out.ID].Items {
		assert.True(t, it.ReceivedQuantity.IsZero())
	}
}

func TestReceiveItems_EstadosInvalidos(t *testing.T) {
	uc, _ := setup()
	ctx := context.Background()

	t.Run("draft no admite recepción", func(t *testing.T) {
		out, err := uc.Create(ctx, "u1", dto.CreatePurchaseOrderRequest{
			SupplierName: "Proveedor SA",
			WarehouseID:  "w1",
			Items:        []dto.CreatePurchaseOrderItemInput{{ProductID: "p1", Quantity: d("1"), UnitPrice: d("1")}},
		})
		require.NoError(t, err)
		_, err = uc.ReceiveItems(ctx, "u1", out.ID, dto.ReceiveItemsRequest{
			Items: map[string]decimal.Decimal{out.Items[0].ID: d("1")},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("orden inexistente", func(t *testing.T) {
		_, err := uc.ReceiveItems(ctx, "u1", "nope", dto.ReceiveItemsRequest{
			Items: map[string]decimal.Decimal{"x": d("1")},
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("item ajeno a la orden", func(t *testing.T) {
		out := createSentOrder(t, uc)
		_, err := uc.ReceiveItems(ctx, "u1", out.ID, dto.ReceiveItemsRequest{
			Items: map[string]decimal.Decimal{"item-ajeno": d("1")},
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCancel_BloqueadaTrasRecepcionParcial(t *testing.T) {
	uc, store := setup()
	ctx := context.Background()
	out := createSentOrder(t, uc)

	// Antes de recibir sí se puede cancelar... pero usamos otra orden para eso
	_, err := uc.ReceiveItems(ctx, "u1", out.ID, dto.ReceiveItemsRequest{
		Items: map[string]decimal.Decimal{out.Items[0].ID: d("1")},
	})
	require.NoError(t, err)
	require.Equal(t, entity.POStatusPartial, store.orders[out.ID].Status)

	err = uc.Cancel(ctx, out.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"con recepción parcial el inventario ya está comprometido")
}

func TestCancel_DesdeDraftYSent(t *testing.T) {
	uc, store := setup()
	ctx := context.Background()

	draft, err := uc.Create(ctx, "u1", dto.CreatePurchaseOrderRequest{
		SupplierName: "Proveedor SA",
		WarehouseID:  "w1",
		Items:        []dto.CreatePurchaseOrderItemInput{{ProductID: "p1", Quantity: d("1"), UnitPrice: d("1")}},
	})
	require.NoError(t, err)
	require.NoError(t, uc.Cancel(ctx, draft.ID))
	assert.Equal(t, entity.POStatusCancelled, store.orders[draft.ID].Status)

	sent := createSentOrder(t, uc)
	require.NoError(t, uc.Cancel(ctx, sent.ID))
	assert.Equal(t, entity.POStatusCancelled, store.orders[sent.ID].Status)

	// Cancelar dos veces no procede
	assert.ErrorIs(t, uc.Cancel(ctx, sent.ID), domain.ErrInvalidTransition)
}
