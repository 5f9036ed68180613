package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/inventory"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria con snapshot/restore para imitar el rollback.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	records map[string]*entity.InventoryRecord
	txns    []*entity.Transaction
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*entity.InventoryRecord{}}
}

func ledgerKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

func (s *memStore) seedStock(productID, warehouseID string, available decimal.Decimal) {
	rec := entity.NewInventoryRecord(productID, warehouseID)
	_ = rec.Apply(available, decimal.Zero)
	s.records[ledgerKey(productID, warehouseID)] = rec
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
func (r *fakeTxnRepo) ListByReference(string) ([]*entity.Transaction, error) { return nil, nil }

type fakeRunner struct{ s *memStore }

func (f *fakeRunner) Run(_ context.Context, fn func(
	repository.InventoryRepository,
	repository.TransactionRepository,
) error) error {
	// snapshot superficial: los fakes de este paquete solo mutan vía Upsert/Create
	recs := make(map[string]*entity.InventoryRecord, len(f.s.records))
	for k, v := range f.s.records {
		c := *v
		recs[k] = &c
	}
	txns := append([]*entity.Transaction(nil), f.s.txns...)
	if err := fn(&fakeInvRepo{f.s}, &fakeTxnRepo{f.s}); err != nil {
		f.s.records = recs
		f.s.txns = txns
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

func setup() (*inventory.AdjustmentUseCase, *memStore) {
	store := newMemStore()
	products := &fakeProductRepo{products: map[string]*entity.Product{
		"p1": {ID: "p1", SKU: "SKU-1", Name: "Tornillos", IsActive: true},
	}}
	warehouses := &fakeWarehouseRepo{warehouses: map[string]*entity.Warehouse{
		"w1": {ID: "w1", Name: "Bodega Central", IsActive: true},
	}}
	uc := inventory.NewAdjustmentUseCase(&fakeRunner{store}, products, warehouses)
	return uc, store
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterAdjustment_PositivoCreaRegistroPerezoso(t *testing.T) {
	uc, store := setup()

	out, err := uc.RegisterAdjustment(context.Background(), "u1", dto.RegisterAdjustmentRequest{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    d("15"),
		Reason:      "Conteo físico inicial",
	})
	require.NoError(t, err)

	assert.True(t, out.Available.Equal(d("15")))
	assert.True(t, out.Total.Equal(d("15")))

	require.Len(t, store.txns, 1)
	tx := store.txns[0]
	assert.Equal(t, entity.TxTypeAdjustment, tx.Type)
	assert.True(t, tx.Quantity.Equal(d("15")))
	assert.Equal(t, "Conteo físico inicial", tx.Reason)
	assert.Equal(t, "u1", tx.PerformedBy)
}

func TestRegisterAdjustment_NegativoDescuenta(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))

	out, err := uc.RegisterAdjustment(context.Background(), "u1", dto.RegisterAdjustmentRequest{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    d("-3"),
		Reason:      "Merma por daño",
	})
	require.NoError(t, err)
	assert.True(t, out.Available.Equal(d("7")))
	assert.True(t, store.txns[0].Quantity.Equal(d("-3")), "el ajuste negativo queda con signo")
}

func TestRegisterAdjustment_Validaciones(t *testing.T) {
	uc, store := setup()
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.RegisterAdjustmentRequest
		want error
	}{
		{"cantidad cero", dto.RegisterAdjustmentRequest{ProductID: "p1", WarehouseID: "w1", Quantity: d("0"), Reason: "x"}, domain.ErrInvalidInput},
		{"sin motivo", dto.RegisterAdjustmentRequest{ProductID: "p1", WarehouseID: "w1", Quantity: d("1")}, domain.ErrInvalidInput},
		{"producto inexistente", dto.RegisterAdjustmentRequest{ProductID: "nope", WarehouseID: "w1", Quantity: d("1"), Reason: "x"}, domain.ErrNotFound},
		{"bodega inexistente", dto.RegisterAdjustmentRequest{ProductID: "p1", WarehouseID: "nope", Quantity: d("1"), Reason: "x"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.RegisterAdjustment(ctx, "u1", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, store.txns, "ninguna validación fallida debe dejar transacción")
}

func TestRegisterAdjustment_BajoCero_NoEscribeNada(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("2"))

	_, err := uc.RegisterAdjustment(context.Background(), "u1", dto.RegisterAdjustmentRequest{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    d("-5"),
		Reason:      "Merma",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)

	assert.True(t, store.records[ledgerKey("p1", "w1")].Available.Equal(d("2")))
	assert.Empty(t, store.txns)
}
