package verification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// Service drives the identity verification state machine:
// none -> pending -> {verified, rejected}. A verified decision is what
// escalates a lessee to lessor.
type Service interface {
	SubmitID(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error)
	Review(ctx context.Context, userID uuid.UUID, params ReviewParams) (*models.User, error)
}

type ReviewParams struct {
	Decision models.IDStatus
	IDFront  string
	IDBack   string
	IDType   string
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

func (s *ServiceImpl) SubmitID(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error) {
	if front == "" || back == "" || idType == "" {
		return nil, fmt.Errorf("idFront, idBack and idType are required: %w", models.ErrBadRequest)
	}

	user, err := s.repo.SubmitID(ctx, userID, front, back, idType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ID documents submitted", zap.String("userID", userID.String()))
	return user, nil
}

// Review applies an admin decision. Verification requires the document
// fields; the repository couples the role promotion to the status change so
// the two are never observable apart.
func (s *ServiceImpl) Review(ctx context.Context, userID uuid.UUID, params ReviewParams) (*models.User, error) {
	switch params.Decision {
	case models.IDStatusVerified:
		if params.IDFront == "" || params.IDBack == "" || params.IDType == "" {
			return nil, fmt.Errorf("idFront, idBack and idType are required to verify: %w", models.ErrValidation)
		}
		user, err := s.repo.MarkVerified(ctx, userID, params.IDFront, params.IDBack, params.IDType)
		if err != nil {
			return nil, err
		}
		s.logger.Info("User verified and promoted to lessor", zap.String("userID", userID.String()))
		return user, nil

	case models.IDStatusRejected:
		user, err := s.repo.MarkRejected(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("User verification rejected", zap.String("userID", userID.String()))
		return user, nil

	default:
		return nil, fmt.Errorf("decision must be verified or rejected: %w", models.ErrBadRequest)
	}
}
