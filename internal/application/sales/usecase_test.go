package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/sales"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria con snapshot/restore para imitar el rollback.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	orders  map[string]*entity.SalesOrder
	records map[string]*entity.InventoryRecord
	txns    []*entity.Transaction
	seq     int
}

func newMemStore() *memStore {
	return &memStore{
		orders:  map[string]*entity.SalesOrder{},
		records: map[string]*entity.InventoryRecord{},
	}
}

func ledgerKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.seq = s.seq
	for id, so := range s.orders {
		c := *so
		c.Items = nil
		for _, it := range so.Items {
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

// seedStock deja disponible inicial en (producto, bodega).
func (s *memStore) seedStock(productID, warehouseID string, available decimal.Decimal) {
	rec := entity.NewInventoryRecord(productID, warehouseID)
	_ = rec.Apply(available, decimal.Zero)
	s.records[ledgerKey(productID, warehouseID)] = rec
}

type fakeSORepo struct{ s *memStore }

func (r *fakeSORepo) Create(so *entity.SalesOrder) error {
	r.s.orders[so.ID] = so
	return nil
}
func (r *fakeSORepo) GetByID(id string) (*entity.SalesOrder, error)          { return r.s.orders[id], nil }
func (r *fakeSORepo) GetByIDForUpdate(id string) (*entity.SalesOrder, error) { return r.s.orders[id], nil }

func (r *fakeSORepo) UpdateStatus(id, expected, next string) (bool, error) {
	so, ok := r.s.orders[id]
	if !ok || so.Status != expected {
		return false, nil
	}
	so.Status = next
	so.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeSORepo) UpdateItemReturned(itemID string, returned decimal.Decimal) error {
	for _, so := range r.s.orders {
		for _, it := range so.Items {
			if it.ID == itemID {
				it.ReturnedQty = returned
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *fakeSORepo) List(status string, limit, offset int) ([]*entity.SalesOrder, error) {
	var out []*entity.SalesOrder
	for _, so := range r.s.orders {
		if status == "" || so.Status == status {
			out = append(out, so)
		}
	}
	return out, nil
}

func (r *fakeSORepo) NextOrderNumber() (string, error) {
	r.s.seq++
	return "SO-000001", nil
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

func (f *fakeRunner) RunSales(_ context.Context, fn func(
	repository.SalesOrderRepository,
	repository.InventoryRepository,
	repository.TransactionRepository,
) error) error {
	snap := f.s.snapshot()
	if err := fn(&fakeSORepo{f.s}, &fakeInvRepo{f.s}, &fakeTxnRepo{f.s}); err != nil {
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
func (r *fakeWarehouseRepo) Update(*entity.Warehouse) error         { return nil }
func (r *fakeWarehouseRepo) List(int, int) ([]*entity.Warehouse, error) { return nil, nil }
func (r *fakeWarehouseRepo) Deactivate(string) error                { return nil }

// ──────────────────────────────────────────────────────────────────────────────
// Setup
// ──────────────────────────────────────────────────────────────────────────────

func setup() (*sales.SalesOrderUseCase, *memStore) {
	store := newMemStore()
	products := &fakeProductRepo{products: map[string]*entity.Product{
		"p1": {ID: "p1", SKU: "SKU-1", Name: "Tornillos", UnitPrice: d("2.00"), IsActive: true},
	}}
	warehouses := &fakeWarehouseRepo{warehouses: map[string]*entity.Warehouse{
		"w1": {ID: "w1", Name: "Bodega Central", IsActive: true},
	}}
	uc := sales.NewSalesOrderUseCase(&fakeRunner{store}, &fakeSORepo{store}, products, warehouses)
	return uc, store
}

func createOrder(t *testing.T, uc *sales.SalesOrderUseCase, qty string) *dto.SalesOrderResponse {
	t.Helper()
	out, err := uc.Create(context.Background(), "u1", dto.CreateSalesOrderRequest{
		CustomerName: "Cliente SA",
		Items: []dto.CreateSalesOrderItemInput{
			{ProductID: "p1", WarehouseID: "w1", Quantity: d(qty)},
		},
	})
	require.NoError(t, err)
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ReservaInventario(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))

	out := createOrder(t, uc, "6")
	assert.Equal(t, entity.SOStatusPending, out.Status)

	rec := store.records[ledgerKey("p1", "w1")]
	assert.True(t, rec.Available.Equal(d("4")), "disponible baja con la reserva")
	assert.True(t, rec.Reserved.Equal(d("6")), "reservado sube con la reserva")
	assert.True(t, rec.Total.Equal(d("10")), "el total no cambia al reservar")
	assert.Empty(t, store.txns, "reservar no deja transacción: el total no cambió")

	// Precio de lista del producto aplicado por defecto
	assert.True(t, out.Items[0].UnitPrice.Equal(d("2.00")))
	assert.True(t, out.Items[0].TotalPrice.Equal(d("12.00")))
}

func TestCreate_SinDisponible_NoCreaNada(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("5"))

	_, err := uc.Create(context.Background(), "u1", dto.CreateSalesOrderRequest{
		CustomerName: "Cliente SA",
		Items: []dto.CreateSalesOrderItemInput{
			{ProductID: "p1", WarehouseID: "w1", Quantity: d("6")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)

	assert.Empty(t, store.orders, "la orden no debe quedar creada")
	rec := store.records[ledgerKey("p1", "w1")]
	assert.True(t, rec.Available.Equal(d("5")), "el disponible queda intacto")
	assert.True(t, rec.Reserved.IsZero())
}

func TestShip_ConsumeReservado(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "6")

	require.NoError(t, uc.Process(ctx, out.ID))
	require.NoError(t, uc.Ship(ctx, "u1", out.ID))

	assert.Equal(t, entity.SOStatusShipped, store.orders[out.ID].Status)
	rec := store.records[ledgerKey("p1", "w1")]
	assert.True(t, rec.Available.Equal(d("4")))
	assert.True(t, rec.Reserved.IsZero(), "el despacho consume lo reservado")
	assert.True(t, rec.Total.Equal(d("4")))

	require.Len(t, store.txns, 1)
	assert.Equal(t, entity.TxTypeSale, store.txns[0].Type)
	assert.True(t, store.txns[0].Quantity.Equal(d("-6")), "la venta sale con cantidad negativa")
	assert.Equal(t, out.ID, store.txns[0].ReferenceID)
}

func TestShip_SoloDesdeProcessing(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "2")

	err := uc.Ship(ctx, "u1", out.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "pending no se despacha directo")
	assert.Empty(t, store.txns)
}

func TestShip_ReservadoInsuficiente_RevierteTodo(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "6")
	require.NoError(t, uc.Process(ctx, out.ID))

	// Corrupción externa del reservado (simula un desajuste operativo)
	store.records[ledgerKey("p1", "w1")].Reserved = d("2")

	err := uc.Ship(ctx, "u1", out.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	assert.Equal(t, entity.SOStatusProcessing, store.orders[out.ID].Status,
		"el estado no avanza si el ledger falla")
	assert.Empty(t, store.txns)
}

func TestDeliver_SoloDesdeShipped(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "2")

	assert.ErrorIs(t, uc.Deliver(ctx, out.ID), domain.ErrInvalidTransition)

	require.NoError(t, uc.Process(ctx, out.ID))
	require.NoError(t, uc.Ship(ctx, "u1", out.ID))
	require.NoError(t, uc.Deliver(ctx, out.ID))
	assert.Equal(t, entity.SOStatusDelivered, store.orders[out.ID].Status)
}

func TestCancel_RestauraInventario(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "6")

	require.NoError(t, uc.Cancel(ctx, "u1", out.ID))

	assert.Equal(t, entity.SOStatusCancelled, store.orders[out.ID].Status)
	rec := store.records[ledgerKey("p1", "w1")]
	assert.True(t, rec.Available.Equal(d("10")), "la cancelación devuelve lo reservado al disponible")
	assert.True(t, rec.Reserved.IsZero())

	require.Len(t, store.txns, 1)
	assert.Equal(t, entity.TxTypeAdjustment, store.txns[0].Type)
	assert.True(t, store.txns[0].Quantity.Equal(d("6")))
	assert.Equal(t, "Orden cancelada - inventario restaurado", store.txns[0].Reason)
}

func TestCancel_TrasDespacho_Rechazada(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "6")
	require.NoError(t, uc.Process(ctx, out.ID))
	require.NoError(t, uc.Ship(ctx, "u1", out.ID))

	err := uc.Cancel(ctx, "u1", out.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, entity.SOStatusShipped, store.orders[out.ID].Status)
}

func TestReturnItems_DevuelveAlDisponible(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "6")
	require.NoError(t, uc.Process(ctx, out.ID))
	require.NoError(t, uc.Ship(ctx, "u1", out.ID))
	require.NoError(t, uc.Deliver(ctx, out.ID))

	itemID := out.Items[0].ID
	err := uc.ReturnItems(ctx, "u1", out.ID, dto.ReturnItemsRequest{
		Items:  map[string]decimal.Decimal{itemID: d("2")},
		Reason: "Producto defectuoso",
	})
	require.NoError(t, err)

	rec := store.records[ledgerKey("p1", "w1")]
	assert.True(t, rec.Available.Equal(d("6")), "4 tras el despacho + 2 devueltos")
	assert.True(t, store.orders[out.ID].Items[0].ReturnedQty.Equal(d("2")))

	last := store.txns[len(store.txns)-1]
	assert.Equal(t, entity.TxTypeReturn, last.Type)
	assert.True(t, last.Quantity.Equal(d("2")))
	assert.Equal(t, "Producto defectuoso", last.Reason)

	t.Run("la devolución acumulada no supera lo vendido", func(t *testing.T) {
		err := uc.ReturnItems(ctx, "u1", out.ID, dto.ReturnItemsRequest{
			Items: map[string]decimal.Decimal{itemID: d("5")}, // 2 ya devueltos de 6
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.True(t, store.orders[out.ID].Items[0].ReturnedQty.Equal(d("2")))
	})
}

func TestReturnItems_SoloSobreEntregadas(t *testing.T) {
	uc, store := setup()
	store.seedStock("p1", "w1", d("10"))
	ctx := context.Background()
	out := createOrder(t, uc, "2")

	err := uc.ReturnItems(ctx, "u1", out.ID, dto.ReturnItemsRequest{
		Items: map[string]decimal.Decimal{out.Items[0].ID: d("1")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
