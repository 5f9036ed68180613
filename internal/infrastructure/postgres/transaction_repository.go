package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación sobre PostgreSQL del registro de
// transacciones (usable con pool o tx). Solo inserta: las filas de
// inventory_transactions nunca se actualizan ni se borran.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

const transactionColumns = `id, product_id, warehouse_id, type, quantity, reference_id, reason, performed_by, created_at`

// Create persiste una transacción de inventario.
func (r *TransactionRepo) Create(t *entity.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.ProductID, t.WarehouseID, t.Type, t.Quantity,
		nullable(t.ReferenceID), nullable(t.Reason), nullable(t.PerformedBy), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory transaction: %w", err)
	}
	return nil
}

// ListByProduct lista transacciones de un producto en un rango de fechas.
func (r *TransactionRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Transaction, error) {
	return r.list("product_id", productID, from, to, limit, offset)
}

// ListByWarehouse lista transacciones de una bodega en un rango de fechas.
func (r *TransactionRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Transaction, error) {
	return r.list("warehouse_id", warehouseID, from, to, limit, offset)
}

func (r *TransactionRepo) list(column, value string, from, to *time.Time, limit, offset int) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM inventory_transactions WHERE ` + column + ` = $1`
	args := []any{value}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions by %s: %w", column, err)
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

// ListByReference lista las transacciones originadas por una orden o traslado.
func (r *TransactionRepo) ListByReference(referenceID string) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM inventory_transactions WHERE reference_id = $1
		ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by reference: %w", err)
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

func scanTransactionRows(rows pgx.Rows) ([]*entity.Transaction, error) {
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		var referenceID, reason, performedBy *string
		if err := rows.Scan(&t.ID, &t.ProductID, &t.WarehouseID, &t.Type, &t.Quantity,
			&referenceID, &reason, &performedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ReferenceID = deref(referenceID)
		t.Reason = deref(reason)
		t.PerformedBy = deref(performedBy)
		list = append(list, &t)
	}
	return list, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
