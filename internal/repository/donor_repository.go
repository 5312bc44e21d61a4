package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/donor-service/internal/domain"
)

// DonorRepository defines persistence access for donors.
type DonorRepository interface {
	Create(ctx context.Context, donor *domain.Donor) error
	Update(ctx context.Context, donor *domain.Donor) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Donor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Donor, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Donor, error)
	List(ctx context.Context, filter DonorFilter) ([]domain.Donor, error)
	Count(ctx context.Context) (int64, error)
}

// DonorFilter defines query params for donor listing.
type DonorFilter struct {
	Search         string
	OrganizationID *int64
	Limit          int
	Offset         int
}

type donorRepository struct {
	pool *pgxpool.Pool
}

// NewDonorRepository returns a Postgres-backed implementation.
func NewDonorRepository(pool *pgxpool.Pool) DonorRepository {
	return &donorRepository{pool: pool}
}

const donorColumns = `id, first_name, last_name, email, phone, password_hash, organization_id,
        stripe_customer_id, crm_contact_id, created_at, updated_at`

func scanDonor(row pgx.Row) (*domain.Donor, error) {
	var d domain.Donor
	if err := row.Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&d.Email,
		&d.Phone,
		&d.PasswordHash,
		&d.OrganizationID,
		&d.StripeCustomerID,
		&d.CRMContactID,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *donorRepository) Create(ctx context.Context, donor *domain.Donor) error {
	const query = `
        INSERT INTO donors (first_name, last_name, email, phone, password_hash, organization_id, stripe_customer_id, crm_contact_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		donor.FirstName,
		donor.LastName,
		donor.Email,
		donor.Phone,
		donor.PasswordHash,
		donor.OrganizationID,
		donor.StripeCustomerID,
		donor.CRMContactID,
	).Scan(&donor.ID, &donor.CreatedAt, &donor.UpdatedAt)
	return mapWriteError(err)
}

func (r *donorRepository) Update(ctx context.Context, donor *domain.Donor) error {
	const query = `
        UPDATE donors
        SET first_name=$1, last_name=$2, email=$3, phone=$4, password_hash=$5, organization_id=$6,
            stripe_customer_id=$7, crm_contact_id=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		donor.FirstName,
		donor.LastName,
		donor.Email,
		donor.Phone,
		donor.PasswordHash,
		donor.OrganizationID,
		donor.StripeCustomerID,
		donor.CRMContactID,
		donor.ID,
	).Scan(&donor.UpdatedAt)
	return mapWriteError(err)
}

func (r *donorRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM donors WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *donorRepository) GetByID(ctx context.Context, id int64) (*domain.Donor, error) {
	return scanDonor(r.pool.QueryRow(ctx, `SELECT `+donorColumns+` FROM donors WHERE id=$1`, id))
}

func (r *donorRepository) GetByEmail(ctx context.Context, email string) (*domain.Donor, error) {
	return scanDonor(r.pool.QueryRow(ctx, `SELECT `+donorColumns+` FROM donors WHERE lower(email)=lower($1)`, email))
}

func (r *donorRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Donor, error) {
	return scanDonor(r.pool.QueryRow(ctx, `SELECT `+donorColumns+` FROM donors WHERE stripe_customer_id=$1`, customerID))
}

func (r *donorRepository) List(ctx context.Context, filter DonorFilter) ([]domain.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors`
	args := []any{}
	clauses := []string{}

	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", n, n, n))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *donorRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM donors`).Scan(&n)
	return n, err
}
