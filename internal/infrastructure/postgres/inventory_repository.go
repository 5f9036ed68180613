package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL
// (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

const inventoryColumns = `product_id, warehouse_id, available_quantity, reserved_quantity, total_quantity, updated_at`

// Get obtiene el registro de inventario de un producto en una bodega.
// Si no existe devuelve un registro en cero sin persistir (creación perezosa).
func (r *InventoryRepo) Get(productID, warehouseID string) (*entity.InventoryRecord, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_records WHERE product_id = $1 AND warehouse_id = $2`
	rec, err := r.scanOne(query, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return rec, nil
}

// GetForUpdate obtiene el registro y bloquea la fila para update (SELECT FOR UPDATE).
func (r *InventoryRepo) GetForUpdate(productID, warehouseID string) (*entity.InventoryRecord, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_records WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	rec, err := r.scanOne(query, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("get inventory record for update: %w", err)
	}
	return rec, nil
}

func (r *InventoryRepo) scanOne(query, productID, warehouseID string) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	err := r.q.QueryRow(context.Background(), query, productID, warehouseID).Scan(
		&rec.ProductID, &rec.WarehouseID, &rec.Available, &rec.Reserved, &rec.Total, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewInventoryRecord(productID, warehouseID), nil
		}
		return nil, err
	}
	return &rec, nil
}

// Upsert inserta o actualiza las cantidades del registro (por producto y bodega).
func (r *InventoryRepo) Upsert(record *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (product_id, warehouse_id, available_quantity, reserved_quantity, total_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET available_quantity = EXCLUDED.available_quantity,
		              reserved_quantity  = EXCLUDED.reserved_quantity,
		              total_quantity     = EXCLUDED.total_quantity,
		              updated_at         = now()`
	_, err := r.q.Exec(context.Background(), query,
		record.ProductID, record.WarehouseID, record.Available, record.Reserved, record.Total,
	)
	if err != nil {
		return fmt.Errorf("upsert inventory record: %w", err)
	}
	return nil
}

// ListByWarehouse lista el inventario de una bodega con paginación.
func (r *InventoryRepo) ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_records WHERE warehouse_id = $1
		ORDER BY product_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory by warehouse: %w", err)
	}
	defer rows.Close()
	return scanInventoryRows(rows)
}

// ListByProduct lista el inventario de un producto en todas las bodegas.
func (r *InventoryRepo) ListByProduct(productID string) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory_records WHERE product_id = $1
		ORDER BY warehouse_id`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory by product: %w", err)
	}
	defer rows.Close()
	return scanInventoryRows(rows)
}

// ListBelowReorder lista productos activos en o bajo su punto de reorden.
// Con warehouseID filtra por bodega; vacío agrega el disponible global.
func (r *InventoryRepo) ListBelowReorder(warehouseID string) ([]*repository.ReorderRow, error) {
	var (
		query string
		args  []any
	)
	if warehouseID != "" {
		query = `
			SELECT p.id, p.sku, p.name, i.warehouse_id, i.available_quantity, p.reorder_level, p.reorder_quantity
			FROM inventory_records i
			JOIN products p ON p.id = i.product_id
			WHERE p.is_active AND i.warehouse_id = $1 AND i.available_quantity <= p.reorder_level
			ORDER BY i.available_quantity ASC`
		args = []any{warehouseID}
	} else {
		query = `
			SELECT p.id, p.sku, p.name, ''::text, COALESCE(SUM(i.available_quantity), 0), p.reorder_level, p.reorder_quantity
			FROM products p
			LEFT JOIN inventory_records i ON i.product_id = p.id
			WHERE p.is_active
			GROUP BY p.id, p.sku, p.name, p.reorder_level, p.reorder_quantity
			HAVING COALESCE(SUM(i.available_quantity), 0) <= p.reorder_level
			ORDER BY 5 ASC`
	}
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list below reorder: %w", err)
	}
	defer rows.Close()
	var list []*repository.ReorderRow
	for rows.Next() {
		var row repository.ReorderRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.ProductName, &row.WarehouseID,
			&row.Available, &row.ReorderLevel, &row.ReorderQuantity); err != nil {
			return nil, fmt.Errorf("scan reorder row: %w", err)
		}
		list = append(list, &row)
	}
	return list, rows.Err()
}

func scanInventoryRows(rows pgx.Rows) ([]*entity.InventoryRecord, error) {
	var list []*entity.InventoryRecord
	for rows.Next() {
		var rec entity.InventoryRecord
		if err := rows.Scan(&rec.ProductID, &rec.WarehouseID, &rec.Available, &rec.Reserved, &rec.Total, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
