package http

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/repository"
)

type memDonorRepo struct {
	mu     sync.Mutex
	nextID int64
	donors map[int64]domain.Donor
}

func newMemDonorRepo() *memDonorRepo {
	return &memDonorRepo{donors: map[int64]domain.Donor{}}
}

func (r *memDonorRepo) Create(_ context.Context, d *domain.Donor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.donors {
		if strings.EqualFold(existing.Email, d.Email) {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	d.ID = r.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.donors[d.ID] = *d
	return nil
}

func (r *memDonorRepo) Update(_ context.Context, d *domain.Donor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.donors[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.donors[d.ID] = *d
	return nil
}

func (r *memDonorRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.donors[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.donors, id)
	return nil
}

func (r *memDonorRepo) first(match func(domain.Donor) bool) (*domain.Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.donors {
		if match(d) {
			return &d, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memDonorRepo) GetByID(_ context.Context, id int64) (*domain.Donor, error) {
	return r.first(func(d domain.Donor) bool { return d.ID == id })
}

func (r *memDonorRepo) GetByEmail(_ context.Context, email string) (*domain.Donor, error) {
	return r.first(func(d domain.Donor) bool { return strings.EqualFold(d.Email, email) })
}

func (r *memDonorRepo) GetByStripeCustomerID(_ context.Context, id string) (*domain.Donor, error) {
	return r.first(func(d domain.Donor) bool { return d.StripeCustomerID != nil && *d.StripeCustomerID == id })
}

func (r *memDonorRepo) List(context.Context, repository.DonorFilter) ([]domain.Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Donor, 0, len(r.donors))
	for _, d := range r.donors {
		out = append(out, d)
	}
	return out, nil
}

func (r *memDonorRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.donors)), nil
}

type memAdminRepo struct {
	mu     sync.Mutex
	admins []domain.AdminUser
}

func (r *memAdminRepo) Create(_ context.Context, a *domain.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if strings.EqualFold(existing.Email, a.Email) {
			return repository.ErrDuplicate
		}
	}
	a.ID = int64(len(r.admins) + 1)
	r.admins = append(r.admins, *a)
	return nil
}

func (r *memAdminRepo) GetByID(_ context.Context, id int64) (*domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAdminRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.admins {
		if r.admins[i].ID == id {
			r.admins[i].PasswordHash = passwordHash
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memAdminRepo) GetByEmail(_ context.Context, email string) (*domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAdminRepo) List(context.Context) ([]domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AdminUser(nil), r.admins...), nil
}

type memOrgRepo struct {
	mu   sync.Mutex
	orgs []domain.Organization
}

func (r *memOrgRepo) Create(_ context.Context, o *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = int64(len(r.orgs) + 1)
	r.orgs = append(r.orgs, *o)
	return nil
}

func (r *memOrgRepo) Update(_ context.Context, o *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orgs {
		if r.orgs[i].ID == o.ID {
			r.orgs[i] = *o
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memOrgRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orgs {
		if r.orgs[i].ID == id {
			r.orgs = append(r.orgs[:i], r.orgs[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memOrgRepo) GetByID(_ context.Context, id int64) (*domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memOrgRepo) List(context.Context, repository.OrganizationFilter) ([]domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Organization(nil), r.orgs...), nil
}

func (r *memOrgRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orgs)), nil
}

type memTransactionRepo struct {
	mu  sync.Mutex
	txs []domain.Transaction
}

func (r *memTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.Reference == tx.Reference {
			return repository.ErrDuplicate
		}
	}
	tx.ID = int64(len(r.txs) + 1)
	tx.CreatedAt = time.Now()
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *memTransactionRepo) UpdateStatusByReference(_ context.Context, ref string, status domain.TransactionStatus) (*domain.Transaction, domain.TransactionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.txs {
		if r.txs[i].Reference == ref {
			prev := r.txs[i].Status
			r.txs[i].Status = status
			tx := r.txs[i]
			return &tx, prev, nil
		}
	}
	return nil, "", pgx.ErrNoRows
}

func (r *memTransactionRepo) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.ID == id {
			return &tx, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTransactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if f.DonorID != nil && (tx.DonorID == nil || *tx.DonorID != *f.DonorID) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *memTransactionRepo) Summary(context.Context) (domain.DashboardSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := domain.DashboardSummary{Transactions: int64(len(r.txs))}
	for _, tx := range r.txs {
		if tx.Status == domain.TransactionStatusSucceeded {
			s.SucceededTotalCents += tx.AmountCents
		}
	}
	return s, nil
}

func (r *memTransactionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.txs)
}
