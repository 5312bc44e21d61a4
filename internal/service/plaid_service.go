package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/integrations/plaid"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// LinkTokenCreator creates bank-link tokens.
type LinkTokenCreator interface {
	CreateLinkToken(ctx context.Context, clientUserID, email string) (*plaid.LinkToken, error)
}

// BankLinkService issues Plaid Link tokens to authenticated principals.
type BankLinkService struct {
	client LinkTokenCreator
	logger *zap.Logger
}

// NewBankLinkService builds the service. client may be nil when Plaid is not configured.
func NewBankLinkService(client LinkTokenCreator, logger *zap.Logger) *BankLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankLinkService{client: client, logger: logger}
}

// CreateLinkToken returns a token for the principal or 503 when Plaid is off.
func (s *BankLinkService) CreateLinkToken(ctx context.Context, role domain.Role, userID int64, email string) (*plaid.LinkToken, error) {
	if s.client == nil {
		return nil, apperrors.NewServiceUnavailable("bank linking is not configured")
	}
	subject := LinkSubject(role, userID)
	token, err := s.client.CreateLinkToken(ctx, subject, email)
	if err != nil {
		s.logger.Error("plaid link token failed", zap.String("subject", subject), zap.Error(err))
		return nil, apperrors.NewUpstreamError("bank link provider unavailable", err)
	}
	return token, nil
}

// LinkSubject is the Plaid client_user_id for a principal. Donor and staff ids
// come from different tables, so staff ids carry a prefix.
func LinkSubject(role domain.Role, userID int64) string {
	id := strconv.FormatInt(userID, 10)
	if role == domain.RoleDonor {
		return id
	}
	return "staff-" + id
}
