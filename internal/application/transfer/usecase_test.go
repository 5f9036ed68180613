package transfer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/transfer"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. El runner serializa las "transacciones" con un mutex y
// restaura un snapshot si el callback falla, imitando rollback + aislamiento.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	transfers map[string]*entity.StockTransfer
	records   map[string]*entity.InventoryRecord
	txns      []*entity.Transaction
	seq       int
}

func newMemStore() *memStore {
	return &memStore{
		transfers: map[string]*entity.StockTransfer{},
		records:   map[string]*entity.InventoryRecord{},
	}
}

func ledgerKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.seq = s.seq
	for id, st := range s.transfers {
		c := *st
		c.Items = nil
		for _, it := range st.Items {
			ci := *it
			c.Items = append(c.Items, &ci)
		}
		cp.transfers[id] = &c
	}
	for k, r := range s.records {
		c := *r
		cp.records[k] = &c
	}
	cp.txns = append(cp.txns, s.txns...)
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.transfers = from.transfers
	s.records = from.records
	s.txns = from.txns
	s.seq = from.seq
}

func (s *memStore) seedStock(productID, warehouseID string, available decimal.Decimal) {
	rec := entity.NewInventoryRecord(productID, warehouseID)
	_ = rec.Apply(available, decimal.Zero)
	s.records[ledgerKey(productID, warehouseID)] = rec
}

type fakeSTRepo struct{ s *memStore }

func (r *fakeSTRepo) Create(st *entity.StockTransfer) error {
	r.s.transfers[st.ID] = st
	return nil
}
func (r *fakeSTRepo) GetByID(id string) (*entity.StockTransfer, error) {
	return r.s.transfers[id], nil
}
func (r *fakeSTRepo) GetByIDForUpdate(id string) (*entity.StockTransfer, error) {
	return r.s.transfers[id], nil
}

func (r *fakeSTRepo) UpdateStatus(id, expected, next string) (bool, error) {
	st, ok := r.s.transfers[id]
	if !ok || st.Status != expected {
		return false, nil
	}
	st.Status = next
	st.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeSTRepo) List(status string, limit, offset int) ([]*entity.StockTransfer, error) {
	var out []*entity.StockTransfer
	for _, st := range r.s.transfers {
		if status == "" || st.Status == status {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *fakeSTRepo) NextTransferNumber() (string, error) {
	r.s.seq++
	return "TR-000001", nil
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

func (f *fakeRunner) RunTransfer(_ context.Context, fn func(
	repository.StockTransferRepository,
	repository.InventoryRepository,
	repository.TransactionRepository,
) error) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	snap := f.s.snapshot()
	if err := fn(&fakeSTRepo{f.s}, &fakeInvRepo{f.s}, &fakeTxnRepo{f.s}); err != nil {
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
func (r *fakeProductRepo) GetBySKU(string) (*entity.Product, error)       { return nil, nil }
func (r *fakeProductRepo) Update(*entity.Product) error                   { return nil }
func (r *fakeProductRepo) List(bool, int, int) ([]*entity.Product, error) { return nil, nil }
func (r *fakeProductRepo) Deactivate(string) error                        { return nil }

type fakeWarehouseRepo struct{ warehouses map[string]*entity.Warehouse }

func (r *fakeWarehouseRepo) Create(*entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.warehouses[id], nil
}
func (r *fakeWarehouseRepo) Update(*entity.Warehouse) error             { return nil }
func (r *fakeWarehouseRepo) List(int, int) ([]*entity.Warehouse, error) { return nil, nil }
func (r *fakeWarehouseRepo) Deactivate(string) error                    { return nil }

// ──────────────────────────────────────────────────────────────────────────────
// Setup
// ──────────────────────────────────────────────────────────────────────────────

func setup() (*transfer.StockTransferUseCase, *memStore) {
	store := newMemStore()
	products := &fakeProductRepo{products: map[string]*entity.Product{
		"p1": {ID: "p1", SKU: "SKU-1", Name: "Tornillos", IsActive: true},
	}}
	warehouses := &fakeWarehouseRepo{warehouses: map[string]*entity.Warehouse{
		"w1": {ID: "w1", Name: "Bodega Norte", IsActive: true},
		"w2": {ID: "w2", Name: "Bodega Sur", IsActive: true},
	}}
	uc := transfer.NewStockTransferUseCase(&fakeRunner{store}, &fakeSTRepo{store}, products, warehouses)
	return uc, store
}

func createInTransit(t *testing.T, uc *transfer.StockTransferUseCase, qty string) *dto.TransferResponse {
	t.Helper()
	out, err := uc.Create(context.Background(), "u1", dto.CreateTransferRequest{
		FromWarehouseID: "w1",
		ToWarehouseID:   "w2",
		Items:           []dto.CreateTransferItemInput{{ProductID: "p1", Quantity: d(qty)}},
	})
	require.NoError(t, err)
	require.NoError(t, uc.Dispatch(context.Background(), out.ID))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_Valida(t *testing.T) {
	uc, store := setup()
	ctx := context.Background()

	t.Run("origen igual a destino", func(t *testing.T) {
		_, err := uc.Create(ctx, "u1", dto.CreateTransferRequest{
			FromWarehouseID: "w1",
			ToWarehouseID:   "w1",
			Items:           []dto.CreateTransferItemInput{{ProductID: "p1", Quantity: d("1")}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cantidad cero", func(t *testing.T) {
		_, err := uc.Create(ctx, "u1", dto.CreateTransferRequest{
			FromWarehouseID: "w1",
			ToWarehouseID:   "w2",
			Items:           []dto.CreateTransferItemInput{{ProductID: "p1", Quantity: d("0")}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("crear no toca el ledger", func(t *testing.T) {
		store.seedStock("p1", "w1", d("10"))
		out, err := uc.Create(ctx, "u1", dto.CreateTransferRequest{
			FromWarehouseID: "w1",
			ToWarehouseID:   "w2",
			Items:           []dto.CreateTransferItemInput{{ProductID: "p1", Quantity: d("4")}},
		})
		require.NoError(t, err)
		assert.Equal(t, entity.TransferStatusPending, out.Status)
		assert.True(t, store.records[ledgerKey("p1", "w1")].Available.Equal(d("10")))
		assert.Nil(t, store.records[ledgerKey("p1", "w2")])
	})
}

func TestComplete_MueveInventarioEntreBodegas(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createInTransit(t, uc, "4")

	require.NoError(t, uc.Complete(ctx, "u1", out.ID))

	assert.Equal(t, entity.TransferStatusCompleted, store.transfers[out.ID].Status)
	assert.True(t, store.records[ledgerKey("p1", "w1")].Available.Equal(d("6")))

	dest := store.records[ledgerKey("p1", "w2")]
	require.NotNil(t, dest, "el destino se crea de forma perezosa")
	assert.True(t, dest.Available.Equal(d("4")))

	// Dos transacciones por item: transfer_out en origen, transfer_in en destino
	require.Len(t, store.txns, 2)
	assert.Equal(t, entity.TxTypeTransferOut, store.txns[0].Type)
	assert.True(t, store.txns[0].Quantity.Equal(d("-4")))
	assert.Equal(t, "w1", store.txns[0].WarehouseID)
	assert.Equal(t, entity.TxTypeTransferIn, store.txns[1].Type)
	assert.True(t, store.txns[1].Quantity.Equal(d("4")))
	assert.Equal(t, "w2", store.txns[1].WarehouseID)
	assert.Equal(t, out.ID, store.txns[0].ReferenceID)
	assert.Equal(t, out.ID, store.txns[1].ReferenceID)
}

func TestComplete_SinDisponibleEnOrigen_RevierteTodo(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("3"))
	ctx := context.Background()
	out := createInTransit(t, uc, "4")

	err := uc.Complete(ctx, "u1", out.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)

	assert.Equal(t, entity.TransferStatusInTransit, store.transfers[out.ID].Status,
		"el CAS del estado también se revierte")
	assert.True(t, store.records[ledgerKey("p1", "w1")].Available.Equal(d("3")))
	assert.Nil(t, store.records[ledgerKey("p1", "w2")])
	assert.Empty(t, store.txns)
}

func TestComplete_SoloDesdeInTransit(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()

	out, err := uc.Create(ctx, "u1", dto.CreateTransferRequest{
		FromWarehouseID: "w1",
		ToWarehouseID:   "w2",
		Items:           []dto.CreateTransferItemInput{{ProductID: "p1", Quantity: d("4")}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.Complete(ctx, "u1", out.ID), domain.ErrInvalidTransition,
		"pending no se completa sin despachar")
	assert.Empty(t, store.txns)
}

func TestComplete_Concurrente_SoloUnoGana(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createInTransit(t, uc, "4")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = uc.Complete(ctx, "u1", out.ID)
		}(i)
	}
	wg.Wait()

	// Exactamente uno gana; el otro ve la transición inválida
	if errs[0] == nil {
		assert.ErrorIs(t, errs[1], domain.ErrInvalidTransition)
	} else {
		assert.ErrorIs(t, errs[0], domain.ErrInvalidTransition)
		assert.NoError(t, errs[1])
	}

	// El inventario se movió una sola vez
	assert.True(t, store.records[ledgerKey("p1", "w1")].Available.Equal(d("6")))
	assert.True(t, store.records[ledgerKey("p1", "w2")].Available.Equal(d("4")))
	assert.Len(t, store.txns, 2)
}

func TestCancel_AntesDeCompletar(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()

	t.Run("pending", func(t *testing.T) {
		out, err := uc.Create(ctx, "u1", dto.CreateTransferRequest{
			FromWarehouseID: "w1",
			ToWarehouseID:   "w2",
			Items:           []dto.CreateTransferItemInput{{ProductID: "p1", Quantity: d("4")}},
		})
		require.NoError(t, err)
		require.NoError(t, uc.Cancel(ctx, out.ID))
		assert.Equal(t, entity.TransferStatusCancelled, store.transfers[out.ID].Status)
	})

	t.Run("in_transit sin reversa de ledger", func(t *testing.T) {
		out := createInTransit(t, uc, "4")
		require.NoError(t, uc.Cancel(ctx, out.ID))
		assert.Equal(t, entity.TransferStatusCancelled, store.transfers[out.ID].Status)
		assert.True(t, store.records[ledgerKey("p1", "w1")].Available.Equal(d("10")),
			"antes de completar el ledger nunca fue tocado")
	})

	t.Run("completed no se cancela", func(t *testing.T) {
		out := createInTransit(t, uc, "4")
		require.NoError(t, uc.Complete(ctx, "u1", out.ID))
		assert.ErrorIs(t, uc.Cancel(ctx, out.ID), domain.ErrInvalidTransition)
	})
}
