package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo implementación del puerto StockTransferRepository sobre
// PostgreSQL (cabecera + items). Usable con pool o tx.
type StockTransferRepo struct {
	q Querier
}

// NewStockTransferRepository construye el adaptador de persistencia para
// traslados de stock.
func NewStockTransferRepository(q Querier) *StockTransferRepo {
	return &StockTransferRepo{q: q}
}

const stockTransferColumns = `id, transfer_number, from_warehouse_id, to_warehouse_id, status, notes, created_by, created_at, updated_at`

// Create persiste cabecera e items; el caller debe envolverlo en una transacción.
func (r *StockTransferRepo) Create(st *entity.StockTransfer) error {
	ctx := context.Background()
	query := `
		INSERT INTO stock_transfers (` + stockTransferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		st.ID, st.TransferNumber, st.FromWarehouse, st.ToWarehouse, st.Status,
		st.Notes, nullable(st.CreatedBy), st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock transfer: %w", err)
	}
	itemQuery := `
		INSERT INTO stock_transfer_items (id, stock_transfer_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)`
	for _, it := range st.Items {
		if _, err := r.q.Exec(ctx, itemQuery, it.ID, st.ID, it.ProductID, it.Quantity); err != nil {
			return fmt.Errorf("insert stock transfer item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el traslado con sus items.
func (r *StockTransferRepo) GetByID(id string) (*entity.StockTransfer, error) {
	return r.get(id, false)
}

// GetByIDForUpdate bloquea la cabecera (SELECT FOR UPDATE) y carga los items.
func (r *StockTransferRepo) GetByIDForUpdate(id string) (*entity.StockTransfer, error) {
	return r.get(id, true)
}

func (r *StockTransferRepo) get(id string, forUpdate bool) (*entity.StockTransfer, error) {
	ctx := context.Background()
	query := `
		SELECT ` + stockTransferColumns + `
		FROM stock_transfers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var st entity.StockTransfer
	var createdBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.TransferNumber, &st.FromWarehouse, &st.ToWarehouse, &st.Status,
		&st.Notes, &createdBy, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock transfer: %w", err)
	}
	st.CreatedBy = deref(createdBy)

	items, err := r.loadItems(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.Items = items
	return &st, nil
}

func (r *StockTransferRepo) loadItems(ctx context.Context, stID string) ([]*entity.StockTransferItem, error) {
	query := `
		SELECT id, stock_transfer_id, product_id, quantity
		FROM stock_transfer_items WHERE stock_transfer_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, stID)
	if err != nil {
		return nil, fmt.Errorf("list stock transfer items: %w", err)
	}
	defer rows.Close()
	var items []*entity.StockTransferItem
	for rows.Next() {
		var it entity.StockTransferItem
		if err := rows.Scan(&it.ID, &it.StockTransferID, &it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan stock transfer item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// UpdateStatus avanza el estado solo si el actual es expected (compare-and-swap):
// con dos Complete concurrentes exactamente uno gana.
func (r *StockTransferRepo) UpdateStatus(id, expected, next string) (bool, error) {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE stock_transfers SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, expected, next)
	if err != nil {
		return false, fmt.Errorf("update stock transfer status: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// List lista traslados (cabeceras con items) filtrando por estado si viene.
func (r *StockTransferRepo) List(status string, limit, offset int) ([]*entity.StockTransfer, error) {
	ctx := context.Background()
	query := `
		SELECT ` + stockTransferColumns + `
		FROM stock_transfers`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockTransfer
	for rows.Next() {
		var st entity.StockTransfer
		var createdBy *string
		if err := rows.Scan(&st.ID, &st.TransferNumber, &st.FromWarehouse, &st.ToWarehouse,
			&st.Status, &st.Notes, &createdBy, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock transfer: %w", err)
		}
		st.CreatedBy = deref(createdBy)
		list = append(list, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, st := range list {
		items, err := r.loadItems(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		st.Items = items
	}
	return list, nil
}

// NextTransferNumber genera el consecutivo TR-NNNNNN desde la secuencia.
func (r *StockTransferRepo) NextTransferNumber() (string, error) {
	var n int64
	err := r.q.QueryRow(context.Background(),
		`SELECT nextval('stock_transfer_number_seq')`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next stock transfer number: %w", err)
	}
	return fmt.Sprintf("TR-%06d", n), nil
}
