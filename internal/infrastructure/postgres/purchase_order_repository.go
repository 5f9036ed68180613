package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación del puerto PurchaseOrderRepository sobre
// PostgreSQL (cabecera + items). Usable con pool o tx.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador de persistencia para
// órdenes de compra.
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const purchaseOrderColumns = `id, order_number, supplier_name, warehouse_id, status, notes, created_by, created_at, updated_at`

// Create persiste cabecera e items en inserts separados; el caller debe
// envolverlo en una transacción.
func (r *PurchaseOrderRepo) Create(po *entity.PurchaseOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO purchase_orders (` + purchaseOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		po.ID, po.OrderNumber, po.SupplierName, po.WarehouseID, po.Status,
		po.Notes, nullable(po.CreatedBy), po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	itemQuery := `
		INSERT INTO purchase_order_items (id, purchase_order_id, product_id, quantity, unit_price, received_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range po.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, po.ID, it.ProductID, it.Quantity, it.UnitPrice, it.ReceivedQuantity,
		); err != nil {
			return fmt.Errorf("insert purchase order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus items.
func (r *PurchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	return r.get(id, false)
}

// GetByIDForUpdate bloquea la cabecera (SELECT FOR UPDATE) y carga los items.
func (r *PurchaseOrderRepo) GetByIDForUpdate(id string) (*entity.PurchaseOrder, error) {
	return r.get(id, true)
}

func (r *PurchaseOrderRepo) get(id string, forUpdate bool) (*entity.PurchaseOrder, error) {
	ctx := context.Background()
	query := `
		SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var po entity.PurchaseOrder
	var createdBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&po.ID, &po.OrderNumber, &po.SupplierName, &po.WarehouseID, &po.Status,
		&po.Notes, &createdBy, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	po.CreatedBy = deref(createdBy)

	items, err := r.loadItems(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

func (r *PurchaseOrderRepo) loadItems(ctx context.Context, poID string) ([]*entity.PurchaseOrderItem, error) {
	query := `
		SELECT id, purchase_order_id, product_id, quantity, unit_price, received_quantity
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, poID)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()
	var items []*entity.PurchaseOrderItem
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID,
			&it.Quantity, &it.UnitPrice, &it.ReceivedQuantity); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// UpdateStatus avanza el estado solo si el actual es expected (compare-and-swap).
func (r *PurchaseOrderRepo) UpdateStatus(id, expected, next string) (bool, error) {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE purchase_orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, expected, next)
	if err != nil {
		return false, fmt.Errorf("update purchase order status: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateItemReceived fija la cantidad recibida acumulada de una línea.
func (r *PurchaseOrderRepo) UpdateItemReceived(itemID string, received decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE purchase_order_items SET received_quantity = $2 WHERE id = $1`,
		itemID, received)
	if err != nil {
		return fmt.Errorf("update purchase order item: %w", err)
	}
	return nil
}

// List lista órdenes (cabeceras con items) filtrando por estado si viene.
func (r *PurchaseOrderRepo) List(status string, limit, offset int) ([]*entity.PurchaseOrder, error) {
	ctx := context.Background()
	query := `
		SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseOrder
	for rows.Next() {
		var po entity.PurchaseOrder
		var createdBy *string
		if err := rows.Scan(&po.ID, &po.OrderNumber, &po.SupplierName, &po.WarehouseID,
			&po.Status, &po.Notes, &createdBy, &po.CreatedAt, &po.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		po.CreatedBy = deref(createdBy)
		list = append(list, &po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, po := range list {
		items, err := r.loadItems(ctx, po.ID)
		if err != nil {
			return nil, err
		}
		po.Items = items
	}
	return list, nil
}

// NextOrderNumber genera el consecutivo PO-NNNNNN desde la secuencia.
func (r *PurchaseOrderRepo) NextOrderNumber() (string, error) {
	var n int64
	err := r.q.QueryRow(context.Background(),
		`SELECT nextval('purchase_order_number_seq')`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next purchase order number: %w", err)
	}
	return fmt.Sprintf("PO-%06d", n), nil
}
