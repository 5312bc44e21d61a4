package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/repository"
)

type fakeDonorRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Donor
}

func newFakeDonorRepo() *fakeDonorRepo {
	return &fakeDonorRepo{byID: map[int64]*domain.Donor{}}
}

func (r *fakeDonorRepo) Create(_ context.Context, d *domain.Donor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, d.Email) {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	d.ID = r.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.byID[d.ID] = &cp
	return nil
}

func (r *fakeDonorRepo) Update(_ context.Context, d *domain.Donor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *d
	r.byID[d.ID] = &cp
	return nil
}

func (r *fakeDonorRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeDonorRepo) find(match func(*domain.Donor) bool) (*domain.Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.byID {
		if match(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDonorRepo) GetByID(_ context.Context, id int64) (*domain.Donor, error) {
	return r.find(func(d *domain.Donor) bool { return d.ID == id })
}

func (r *fakeDonorRepo) GetByEmail(_ context.Context, email string) (*domain.Donor, error) {
	return r.find(func(d *domain.Donor) bool { return strings.EqualFold(d.Email, email) })
}

func (r *fakeDonorRepo) GetByStripeCustomerID(_ context.Context, id string) (*domain.Donor, error) {
	return r.find(func(d *domain.Donor) bool { return d.StripeCustomerID != nil && *d.StripeCustomerID == id })
}

func (r *fakeDonorRepo) List(_ context.Context, _ repository.DonorFilter) ([]domain.Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Donor
	for _, d := range r.byID {
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDonorRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

type fakeAdminRepo struct {
	mu     sync.Mutex
	nextID int64
	admins []domain.AdminUser
}

func (r *fakeAdminRepo) Create(_ context.Context, a *domain.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if strings.EqualFold(existing.Email, a.Email) {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	a.ID = r.nextID
	r.admins = append(r.admins, *a)
	return nil
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id int64) (*domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdminRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
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

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if strings.EqualFold(a.Email, email) {
			cp := a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdminRepo) List(context.Context) ([]domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AdminUser(nil), r.admins...), nil
}

type fakeAttemptRepo struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{counts: map[string]int64{}}
}

func (r *fakeAttemptRepo) Failures(_ context.Context, subject string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return r.counts[subject], nil
}

func (r *fakeAttemptRepo) RecordFailure(_ context.Context, subject string, _ time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.counts[subject]++
	return r.counts[subject], nil
}

func (r *fakeAttemptRepo) Reset(_ context.Context, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counts, subject)
	return r.err
}

type fakeTransactionRepo struct {
	mu     sync.Mutex
	nextID int64
	txs    []domain.Transaction
}

func (r *fakeTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.Reference == tx.Reference {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	tx.ID = r.nextID
	tx.CreatedAt = time.Now()
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *fakeTransactionRepo) UpdateStatusByReference(_ context.Context, ref string, status domain.TransactionStatus) (*domain.Transaction, domain.TransactionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.txs {
		if r.txs[i].Reference == ref {
			prev := r.txs[i].Status
			r.txs[i].Status = status
			cp := r.txs[i]
			return &cp, prev, nil
		}
	}
	return nil, "", pgx.ErrNoRows
}

func (r *fakeTransactionRepo) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.ID == id {
			cp := tx
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTransactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if f.DonorID != nil && (tx.DonorID == nil || *tx.DonorID != *f.DonorID) {
			continue
		}
		if f.Status != nil && tx.Status != *f.Status {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *fakeTransactionRepo) Summary(context.Context) (domain.DashboardSummary, error) {
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

func (r *fakeTransactionRepo) all() []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Transaction(nil), r.txs...)
}

type fakeDedupeRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDedupeRepo() *fakeDedupeRepo {
	return &fakeDedupeRepo{seen: map[string]bool{}}
}

func (r *fakeDedupeRepo) MarkProcessed(_ context.Context, id string, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[id] {
		return false, nil
	}
	r.seen[id] = true
	return true, nil
}

func (r *fakeDedupeRepo) Forget(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, id)
	return nil
}

type fakeOrgRepo struct {
	mu     sync.Mutex
	nextID int64
	orgs   map[int64]*domain.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: map[int64]*domain.Organization{}}
}

func (r *fakeOrgRepo) Create(_ context.Context, o *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orgs {
		if o.EIN != nil && existing.EIN != nil && *o.EIN == *existing.EIN {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	o.ID = r.nextID
	cp := *o
	r.orgs[o.ID] = &cp
	return nil
}

func (r *fakeOrgRepo) Update(_ context.Context, o *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[o.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *o
	r.orgs[o.ID] = &cp
	return nil
}

func (r *fakeOrgRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.orgs, id)
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id int64) (*domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrgRepo) List(context.Context, repository.OrganizationFilter) ([]domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Organization
	for _, o := range r.orgs {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrgRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orgs)), nil
}

// conflictingDonorRepo rejects updates that change the email.
type conflictingDonorRepo struct {
	*fakeDonorRepo
}

func (r *conflictingDonorRepo) Update(ctx context.Context, d *domain.Donor) error {
	current, err := r.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	if current.Email != d.Email {
		return repository.ErrDuplicate
	}
	return r.fakeDonorRepo.Update(ctx, d)
}
