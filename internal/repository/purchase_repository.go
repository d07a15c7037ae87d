package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// ErrInvalidTransition is returned when a purchase cannot move to the requested status.
var ErrInvalidTransition = errors.New("repository: invalid purchase status transition")

// PurchaseRepository defines persistence access for purchases and their lines.
type PurchaseRepository interface {
	// Create inserts the purchase and all of its lines atomically.
	Create(ctx context.Context, purchase *domain.Purchase) error
	GetByID(ctx context.Context, id string) (*domain.Purchase, error)
	List(ctx context.Context, filter PurchaseFilter) ([]domain.Purchase, error)
	// TransitionStatus moves the purchase to next under a row lock. Moving to received adds
	// every line quantity to product stock in the same transaction.
	TransitionStatus(ctx context.Context, id string, next domain.PurchaseStatus) (*domain.Purchase, error)
	// Delete removes a purchase that is still a draft.
	Delete(ctx context.Context, id string) error
}

// PurchaseFilter defines query params for purchase listing.
type PurchaseFilter struct {
	Status     *domain.PurchaseStatus
	SupplierID *string
	Limit      int
	Offset     int
}

const purchaseColumns = `id, supplier_id, status, created_by, received_at, created_at, updated_at`

type purchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository returns a Postgres-backed implementation.
func NewPurchaseRepository(pool *pgxpool.Pool) PurchaseRepository {
	return &purchaseRepository{pool: pool}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	if purchase.Status == "" {
		purchase.Status = domain.PurchaseStatusDraft
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertPurchase = `
            INSERT INTO purchases (supplier_id, status, created_by)
            VALUES ($1, $2, $3)
            RETURNING id, created_at, updated_at`

		if err := tx.QueryRow(ctx, insertPurchase,
			purchase.SupplierID,
			string(purchase.Status),
			purchase.CreatedBy,
		).Scan(&purchase.ID, &purchase.CreatedAt, &purchase.UpdatedAt); err != nil {
			return translate(err)
		}

		const insertLine = `
            INSERT INTO purchase_lines (purchase_id, position, product_id, quantity, unit_price)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id`

		for i := range purchase.Lines {
			line := &purchase.Lines[i]
			line.PurchaseID = purchase.ID
			if err := tx.QueryRow(ctx, insertLine,
				line.PurchaseID,
				i,
				line.ProductID,
				line.Quantity,
				line.UnitPrice,
			).Scan(&line.ID); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *purchaseRepository) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	purchase, err := scanPurchase(r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	lines, err := r.loadLines(ctx, r.pool, purchase.ID)
	if err != nil {
		return nil, err
	}
	purchase.Lines = lines
	return purchase, nil
}

func (r *purchaseRepository) List(ctx context.Context, filter PurchaseFilter) ([]domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases`
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.SupplierID != nil {
		if !validID(*filter.SupplierID) {
			return []domain.Purchase{}, nil
		}
		args = append(args, *filter.SupplierID)
		clauses = append(clauses, fmt.Sprintf("supplier_id=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Purchase{}
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		lines, err := r.loadLines(ctx, r.pool, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Lines = lines
	}
	return result, nil
}

func (r *purchaseRepository) TransitionStatus(ctx context.Context, id string, next domain.PurchaseStatus) (*domain.Purchase, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var updated *domain.Purchase
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		purchase, err := scanPurchase(tx.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if !purchase.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}

		const update = `
            UPDATE purchases
            SET status=$1,
                received_at=CASE WHEN $1 = 'received' THEN NOW() ELSE received_at END,
                updated_at=NOW()
            WHERE id=$2
            RETURNING received_at, updated_at`
		if err := tx.QueryRow(ctx, update, string(next), id).Scan(&purchase.ReceivedAt, &purchase.UpdatedAt); err != nil {
			return translate(err)
		}
		purchase.Status = next

		lines, err := r.loadLines(ctx, tx, id)
		if err != nil {
			return err
		}
		purchase.Lines = lines

		if next == domain.PurchaseStatusReceived {
			for _, line := range lines {
				if _, err := tx.Exec(ctx,
					`UPDATE products SET stock_quantity = stock_quantity + $1, updated_at=NOW() WHERE id=$2`,
					line.Quantity, line.ProductID,
				); err != nil {
					return translate(err)
				}
			}
		}
		updated = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *purchaseRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM purchases WHERE id=$1 AND status=$2`, id, string(domain.PurchaseStatusDraft))
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *purchaseRepository) loadLines(ctx context.Context, q querier, purchaseID string) ([]domain.PurchaseLine, error) {
	rows, err := q.Query(ctx, `
        SELECT id, purchase_id, product_id, quantity, unit_price
        FROM purchase_lines
        WHERE purchase_id=$1
        ORDER BY position ASC`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []domain.PurchaseLine{}
	for rows.Next() {
		var line domain.PurchaseLine
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.ProductID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var (
		purchase domain.Purchase
		status   string
	)
	if err := row.Scan(
		&purchase.ID,
		&purchase.SupplierID,
		&status,
		&purchase.CreatedBy,
		&purchase.ReceivedAt,
		&purchase.CreatedAt,
		&purchase.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	purchase.Status = domain.PurchaseStatus(status)
	if !purchase.Status.IsValid() {
		return nil, fmt.Errorf("purchase %s: unknown status %q", purchase.ID, status)
	}
	return &purchase, nil
}
