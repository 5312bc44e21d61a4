package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/donor-service/internal/domain"
)

// TransactionRepository persists donation payments.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	UpdateStatusByReference(ctx context.Context, reference string, status domain.TransactionStatus) (*domain.Transaction, domain.TransactionStatus, error)
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	Summary(ctx context.Context) (domain.DashboardSummary, error)
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	DonorID        *int64
	OrganizationID *int64
	Status         *domain.TransactionStatus
	Since          *time.Time
	Until          *time.Time
	Limit          int
	Offset         int
}

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository builds repository.
func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool}
}

const transactionColumns = `id, donor_id, organization_id, amount_cents, currency, status, source,
        reference, recurring, note, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var status, source string
	if err := row.Scan(
		&t.ID,
		&t.DonorID,
		&t.OrganizationID,
		&t.AmountCents,
		&t.Currency,
		&status,
		&source,
		&t.Reference,
		&t.Recurring,
		&t.Note,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = domain.TransactionStatus(status)
	t.Source = domain.TransactionSource(source)
	return &t, nil
}

// Create inserts the transaction. A reference that already exists yields
// ErrDuplicate so replayed payment events stay idempotent.
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (donor_id, organization_id, amount_cents, currency, status, source, reference, recurring, note)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (reference) DO NOTHING
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		tx.DonorID,
		tx.OrganizationID,
		tx.AmountCents,
		tx.Currency,
		string(tx.Status),
		string(tx.Source),
		tx.Reference,
		tx.Recurring,
		tx.Note,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err == pgx.ErrNoRows {
		return ErrDuplicate
	}
	return mapWriteError(err)
}

// UpdateStatusByReference sets the status and returns the row with its previous status.
func (r *transactionRepository) UpdateStatusByReference(ctx context.Context, reference string, status domain.TransactionStatus) (*domain.Transaction, domain.TransactionStatus, error) {
	const query = `
        WITH prev AS (
            SELECT id AS prev_id, status AS prev_status FROM transactions WHERE reference=$2 FOR UPDATE
        )
        UPDATE transactions SET status=$1
        FROM prev
        WHERE id=prev.prev_id
        RETURNING prev.prev_status, ` + transactionColumns

	var prevStatus string
	var t domain.Transaction
	var newStatus, source string
	err := r.pool.QueryRow(ctx, query, string(status), reference).Scan(
		&prevStatus,
		&t.ID,
		&t.DonorID,
		&t.OrganizationID,
		&t.AmountCents,
		&t.Currency,
		&newStatus,
		&source,
		&t.Reference,
		&t.Recurring,
		&t.Note,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, "", err
	}
	t.Status = domain.TransactionStatus(newStatus)
	t.Source = domain.TransactionSource(source)
	return &t, domain.TransactionStatus(prevStatus), nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	args := []any{}
	clauses := []string{}

	if filter.DonorID != nil {
		args = append(args, *filter.DonorID)
		clauses = append(clauses, fmt.Sprintf("donor_id=$%d", len(args)))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
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

	var result []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

func (r *transactionRepository) Summary(ctx context.Context) (domain.DashboardSummary, error) {
	const query = `
        SELECT
            (SELECT COUNT(*) FROM donors),
            (SELECT COUNT(*) FROM organizations),
            (SELECT COUNT(*) FROM transactions),
            (SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE status='SUCCEEDED')`

	var s domain.DashboardSummary
	err := r.pool.QueryRow(ctx, query).Scan(&s.Donors, &s.Organizations, &s.Transactions, &s.SucceededTotalCents)
	return s, err
}
