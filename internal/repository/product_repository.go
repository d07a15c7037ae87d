package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// ProductRepository defines persistence access for products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
}

// ProductFilter defines query params for product listing.
type ProductFilter struct {
	Search *string
	Limit  int
	Offset int
}

const productColumns = `id, name, sku, unit_price, stock_quantity, created_at, updated_at`

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a Postgres-backed implementation.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (name, sku, unit_price, stock_quantity)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		product.Name,
		product.SKU,
		product.UnitPrice,
		product.StockQuantity,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	return translate(err)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	if !validID(product.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE products
        SET name=$1, sku=$2, unit_price=$3, stock_quantity=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		product.Name,
		product.SKU,
		product.UnitPrice,
		product.StockQuantity,
		product.ID,
	).Scan(&product.UpdatedAt)
	return translate(err)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
		query += " WHERE (LOWER(name) LIKE $1 OR LOWER(sku) LIKE $1)"
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY name ASC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}
	return result, rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.UnitPrice,
		&product.StockQuantity,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}
