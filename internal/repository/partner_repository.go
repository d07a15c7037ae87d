package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// PartnerRepository defines persistence access for clients and suppliers. Each kind lives
// in its own table with the same shape.
type PartnerRepository interface {
	Create(ctx context.Context, partner *domain.Partner) error
	Update(ctx context.Context, partner *domain.Partner) error
	Delete(ctx context.Context, kind domain.PartnerKind, id string) error
	GetByID(ctx context.Context, kind domain.PartnerKind, id string) (*domain.Partner, error)
	List(ctx context.Context, kind domain.PartnerKind, filter PartnerFilter) ([]domain.Partner, error)
}

// PartnerFilter defines query params for partner listing. Search matches name, phone or
// email.
type PartnerFilter struct {
	Search *string
	Limit  int
	Offset int
}

const partnerColumns = `id, name, phone, email, address, created_at, updated_at`

type partnerRepository struct {
	pool *pgxpool.Pool
}

// NewPartnerRepository returns a Postgres-backed implementation.
func NewPartnerRepository(pool *pgxpool.Pool) PartnerRepository {
	return &partnerRepository{pool: pool}
}

func partnerTable(kind domain.PartnerKind) (string, error) {
	switch kind {
	case domain.PartnerKindClient:
		return "clients", nil
	case domain.PartnerKindSupplier:
		return "suppliers", nil
	default:
		return "", fmt.Errorf("unknown partner kind %q", kind)
	}
}

func (r *partnerRepository) Create(ctx context.Context, partner *domain.Partner) error {
	table, err := partnerTable(partner.Kind)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + table + ` (name, phone, email, address)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err = r.pool.QueryRow(ctx, query,
		partner.Name,
		partner.Phone,
		partner.Email,
		partner.Address,
	).Scan(&partner.ID, &partner.CreatedAt, &partner.UpdatedAt)
	return translate(err)
}

func (r *partnerRepository) Update(ctx context.Context, partner *domain.Partner) error {
	table, err := partnerTable(partner.Kind)
	if err != nil {
		return err
	}
	if !validID(partner.ID) {
		return ErrNotFound
	}
	query := `UPDATE ` + table + `
        SET name=$1, phone=$2, email=$3, address=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	err = r.pool.QueryRow(ctx, query,
		partner.Name,
		partner.Phone,
		partner.Email,
		partner.Address,
		partner.ID,
	).Scan(&partner.UpdatedAt)
	return translate(err)
}

func (r *partnerRepository) Delete(ctx context.Context, kind domain.PartnerKind, id string) error {
	table, err := partnerTable(kind)
	if err != nil {
		return err
	}
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *partnerRepository) GetByID(ctx context.Context, kind domain.PartnerKind, id string) (*domain.Partner, error) {
	table, err := partnerTable(kind)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanPartner(kind, r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM `+table+` WHERE id=$1`, id))
}

func (r *partnerRepository) List(ctx context.Context, kind domain.PartnerKind, filter PartnerFilter) ([]domain.Partner, error) {
	table, err := partnerTable(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + partnerColumns + ` FROM ` + table
	args := []any{}

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
		query += " WHERE (LOWER(name) LIKE $1 OR LOWER(phone) LIKE $1 OR LOWER(email) LIKE $1)"
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY name ASC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Partner{}
	for rows.Next() {
		partner, err := scanPartner(kind, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *partner)
	}
	return result, rows.Err()
}

func scanPartner(kind domain.PartnerKind, row pgx.Row) (*domain.Partner, error) {
	partner := domain.Partner{Kind: kind}
	if err := row.Scan(
		&partner.ID,
		&partner.Name,
		&partner.Phone,
		&partner.Email,
		&partner.Address,
		&partner.CreatedAt,
		&partner.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &partner, nil
}
