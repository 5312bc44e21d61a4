package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/donor-service/internal/auth"
	"github.com/spec-kit/donor-service/internal/config"
	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/events"
	"github.com/spec-kit/donor-service/internal/repository"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// InvalidCredentialsMessage is the only message a failed login ever returns.
const InvalidCredentialsMessage = "Invalid email or password"

// fallbackDummyHash is a cost-12 bcrypt hash of a throwaway string. It stands
// in when the per-process dummy hash cannot be generated.
const fallbackDummyHash = "$2b$12$3oBAKYDEr6J8FC3bMfb0/urM/ZeKJqyoE8ofelk3Bxl7fJnhZ9OL2"

// Session is an issued credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterDonorInput carries sign-up fields.
type RegisterDonorInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          *string
	Password       string
	OrganizationID *int64
}

// CreateAdminInput carries fields for a new staff account.
type CreateAdminInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	donors     repository.DonorRepository
	admins     repository.AdminRepository
	attempts   repository.LoginAttemptRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger

	bcryptCost  int
	minPassword int
	maxAttempts int
	attemptsTTL time.Duration
	dummyOnce   sync.Once
	dummyHash   string
	hasher      func(password string, cost int) (string, error)
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	DonorRepo    repository.DonorRepository
	AdminRepo    repository.AdminRepository
	AttemptRepo  repository.LoginAttemptRepository
	TokenManager *auth.TokenManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAuthService builds the service. AttemptRepo and Dispatcher may be nil.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minPassword := cfg.MinPasswordLength
	if minPassword <= 0 {
		minPassword = 8
	}
	return &AuthService{
		donors:      deps.DonorRepo,
		admins:      deps.AdminRepo,
		attempts:    deps.AttemptRepo,
		tokens:      deps.TokenManager,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.BcryptCost,
		minPassword: minPassword,
		maxAttempts: cfg.LoginMaxAttempts,
		attemptsTTL: cfg.LoginWindow(),
		hasher:      auth.HashPassword,
	}
}

// RegisterDonor creates a donor account and signs it in.
func (s *AuthService) RegisterDonor(ctx context.Context, in RegisterDonorInput) (*domain.Donor, Session, error) {
	email := normalizeEmail(in.Email)
	if err := s.checkPassword(in.Password); err != nil {
		return nil, Session{}, err
	}

	if _, err := s.donors.GetByEmail(ctx, email); err == nil {
		return nil, Session{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, Session{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, Session{}, apperrors.NewInternalError(err)
	}

	donor := &domain.Donor{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          email,
		Phone:          in.Phone,
		PasswordHash:   hash,
		OrganizationID: in.OrganizationID,
	}
	if err := s.donors.Create(ctx, donor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Session{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, Session{}, err
	}

	session, err := s.issue(auth.Identity{ID: donor.ID, Email: donor.Email, Role: domain.RoleDonor})
	if err != nil {
		return nil, Session{}, err
	}
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventDonorRegistered,
		&events.Actor{ID: donor.ID, Role: domain.RoleDonor}, events.DonorPayloadFrom(donor)))
	return donor, session, nil
}

// LoginDonor authenticates a donor by email and password.
func (s *AuthService) LoginDonor(ctx context.Context, email, password string) (*domain.Donor, Session, error) {
	email = normalizeEmail(email)
	subject := "donor:" + email
	if err := s.checkThrottle(ctx, subject); err != nil {
		return nil, Session{}, err
	}

	donor, err := s.donors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.burnCompare(password)
			return nil, Session{}, s.rejectLogin(ctx, subject)
		}
		return nil, Session{}, err
	}
	if err := auth.ComparePassword(donor.PasswordHash, password); err != nil {
		return nil, Session{}, s.rejectLogin(ctx, subject)
	}

	s.clearThrottle(ctx, subject)
	session, err := s.issue(auth.Identity{ID: donor.ID, Email: donor.Email, Role: domain.RoleDonor})
	if err != nil {
		return nil, Session{}, err
	}
	return donor, session, nil
}

// LoginAdmin authenticates a staff account. Inactive accounts fail the same
// way as a wrong password.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*domain.AdminUser, Session, error) {
	email = normalizeEmail(email)
	subject := "admin:" + email
	if err := s.checkThrottle(ctx, subject); err != nil {
		return nil, Session{}, err
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.burnCompare(password)
			return nil, Session{}, s.rejectLogin(ctx, subject)
		}
		return nil, Session{}, err
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil || !admin.Active {
		return nil, Session{}, s.rejectLogin(ctx, subject)
	}

	s.clearThrottle(ctx, subject)
	session, err := s.issue(auth.Identity{ID: admin.ID, Email: admin.Email, Role: admin.Role})
	if err != nil {
		return nil, Session{}, err
	}
	return admin, session, nil
}

// CreateAdmin provisions a staff account. Donor role is refused.
func (s *AuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*domain.AdminUser, error) {
	if !in.Role.IsStaff() {
		return nil, apperrors.NewValidationError("role must be MANAGER, ADMIN or SUPERADMIN", map[string]any{"role": in.Role})
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	admin := &domain.AdminUser{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	return admin, nil
}

// ChangePassword verifies the current password before storing the new hash.
// Donor principals live in the donors table, every other role in admin_users.
func (s *AuthService) ChangePassword(ctx context.Context, role domain.Role, userID int64, currentPassword, newPassword string) error {
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}
	if role == domain.RoleDonor {
		return s.changeDonorPassword(ctx, userID, currentPassword, newPassword)
	}
	return s.changeAdminPassword(ctx, userID, currentPassword, newPassword)
}

func (s *AuthService) changeDonorPassword(ctx context.Context, donorID int64, currentPassword, newPassword string) error {
	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(donor.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	hash, err := s.hasher(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	donor.PasswordHash = hash
	return s.donors.Update(ctx, donor)
}

func (s *AuthService) changeAdminPassword(ctx context.Context, adminID int64, currentPassword, newPassword string) error {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.Active {
		return apperrors.NewUnauthorized("account is disabled")
	}
	if err := auth.ComparePassword(admin.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	hash, err := s.hasher(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return s.admins.UpdatePassword(ctx, admin.ID, hash)
}

// TokenManager exposes the injected token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) issue(id auth.Identity) (Session, error) {
	token, exp, err := s.tokens.Issue(id)
	if err != nil {
		return Session{}, apperrors.NewInternalError(err)
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) checkPassword(password string) error {
	if len(password) < s.minPassword {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": s.minPassword})
	}
	return nil
}

// burnCompare spends one bcrypt comparison so unknown emails take as long as
// wrong passwords.
func (s *AuthService) burnCompare(password string) {
	_ = auth.ComparePassword(s.burnHash(), password)
}

func (s *AuthService) burnHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher("not-a-real-password", s.bcryptCost)
		if err != nil || hash == "" {
			s.logger.Warn("dummy password hash unavailable, using fallback", zap.Error(err))
			hash = fallbackDummyHash
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) checkThrottle(ctx context.Context, subject string) error {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return nil
	}
	n, err := s.attempts.Failures(ctx, subject)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
		return nil
	}
	if n >= int64(s.maxAttempts) {
		return apperrors.NewTooManyRequests("too many failed login attempts, try again later")
	}
	return nil
}

func (s *AuthService) rejectLogin(ctx context.Context, subject string) error {
	if s.attempts != nil && s.maxAttempts > 0 {
		if _, err := s.attempts.RecordFailure(ctx, subject, s.attemptsTTL); err != nil {
			s.logger.Warn("record login failure", zap.Error(err))
		}
	}
	return apperrors.NewUnauthorized(InvalidCredentialsMessage)
}

func (s *AuthService) clearThrottle(ctx context.Context, subject string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Reset(ctx, subject); err != nil {
		s.logger.Warn("reset login failures", zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// publish emits an event and logs handler failures without failing the caller.
func publish(ctx context.Context, d events.Dispatcher, logger *zap.Logger, event events.Event) {
	if d == nil {
		return
	}
	if err := d.Publish(ctx, event); err != nil {
		logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
