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

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo implementación del puerto SalesOrderRepository sobre
// PostgreSQL (cabecera + items). Usable con pool o tx.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador de persistencia para
// órdenes de venta.
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

const salesOrderColumns = `id, order_number, customer_name, status, notes, created_by, created_at, updated_at`

// Create persiste cabecera e items; el caller debe envolverlo en una transacción.
func (r *SalesOrderRepo) Create(so *entity.SalesOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO sales_orders (` + salesOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		so.ID, so.OrderNumber, so.CustomerName, so.Status, so.Notes,
		nullable(so.CreatedBy), so.CreatedAt, so.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sales order: %w", err)
	}
	itemQuery := `
		INSERT INTO sales_order_items (id, sales_order_id, product_id, warehouse_id, quantity, unit_price, total_price, returned_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, it := range so.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, so.ID, it.ProductID, it.WarehouseID,
			it.Quantity, it.UnitPrice, it.TotalPrice, it.ReturnedQty,
		); err != nil {
			return fmt.Errorf("insert sales order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus items.
func (r *SalesOrderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	return r.get(id, false)
}

// GetByIDForUpdate bloquea la cabecera (SELECT FOR UPDATE) y carga los items.
func (r *SalesOrderRepo) GetByIDForUpdate(id string) (*entity.SalesOrder, error) {
	return r.get(id, true)
}

func (r *SalesOrderRepo) get(id string, forUpdate bool) (*entity.SalesOrder, error) {
	ctx := context.Background()
	query := `
		SELECT ` + salesOrderColumns + `
		FROM sales_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var so entity.SalesOrder
	var createdBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&so.ID, &so.OrderNumber, &so.CustomerName, &so.Status, &so.Notes,
		&createdBy, &so.CreatedAt, &so.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	so.CreatedBy = deref(createdBy)

	items, err := r.loadItems(ctx, so.ID)
	if err != nil {
		return nil, err
	}
	so.Items = items
	return &so, nil
}

func (r *SalesOrderRepo) loadItems(ctx context.Context, soID string) ([]*entity.SalesOrderItem, error) {
	query := `
		SELECT id, sales_order_id, product_id, warehouse_id, quantity, unit_price, total_price, returned_quantity
		FROM sales_order_items WHERE sales_order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, soID)
	if err != nil {
		return nil, fmt.Errorf("list sales order items: %w", err)
	}
	defer rows.Close()
	var items []*entity.SalesOrderItem
	for rows.Next() {
		var it entity.SalesOrderItem
		if err := rows.Scan(&it.ID, &it.SalesOrderID, &it.ProductID, &it.WarehouseID,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.ReturnedQty); err != nil {
			return nil, fmt.Errorf("scan sales order item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// UpdateStatus avanza el estado solo si el actual es expected (compare-and-swap).
func (r *SalesOrderRepo) UpdateStatus(id, expected, next string) (bool, error) {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE sales_orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, expected, next)
	if err != nil {
		return false, fmt.Errorf("update sales order status: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateItemReturned fija la cantidad devuelta acumulada de una línea.
func (r *SalesOrderRepo) UpdateItemReturned(itemID string, returned decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE sales_order_items SET returned_quantity = $2 WHERE id = $1`,
		itemID, returned)
	if err != nil {
		return fmt.Errorf("update sales order item: %w", err)
	}
	return nil
}

// List lista órdenes (cabeceras con items) filtrando por estado si viene.
func (r *SalesOrderRepo) List(status string, limit, offset int) ([]*entity.SalesOrder, error) {
	ctx := context.Background()
	query := `
		SELECT ` + salesOrderColumns + `
		FROM sales_orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesOrder
	for rows.Next() {
		var so entity.SalesOrder
		var createdBy *string
		if err := rows.Scan(&so.ID, &so.OrderNumber, &so.CustomerName, &so.Status,
			&so.Notes, &createdBy, &so.CreatedAt, &so.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		so.CreatedBy = deref(createdBy)
		list = append(list, &so)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, so := range list {
		items, err := r.loadItems(ctx, so.ID)
		if err != nil {
			return nil, err
		}
		so.Items = items
	}
	return list, nil
}

// NextOrderNumber genera el consecutivo SO-NNNNNN desde la secuencia.
func (r *SalesOrderRepo) NextOrderNumber() (string, error) {
	var n int64
	err := r.q.QueryRow(context.Background(),
		`SELECT nextval('sales_order_number_seq')`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next sales order number: %w", err)
	}
	return fmt.Sprintf("SO-%06d", n), nil
}
