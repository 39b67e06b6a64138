package storage

import (
	"context"
	"time"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MockSubmissionStorage - мок для тестов.
type MockSubmissionStorage struct {
	GetByIDFunc                 func(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetAvailableByCreatorIDFunc func(ctx context.Context, creatorID uuid.UUID) ([]*models.Submission, error)
	LockForPayoutWithTxFunc     func(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
	RolloverWithTxFunc          func(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID, views int64) error
	ReleaseWithTxFunc           func(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID) error
}

func (m *MockSubmissionStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrSubmissionNotFound
}

func (m *MockSubmissionStorage) GetAvailableByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.Submission, error) {
	if m.GetAvailableByCreatorIDFunc != nil {
		return m.GetAvailableByCreatorIDFunc(ctx, creatorID)
	}
	return []*models.Submission{}, nil
}

func (m *MockSubmissionStorage) LockForPayoutWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if m.LockForPayoutWithTxFunc != nil {
		return m.LockForPayoutWithTxFunc(ctx, tx, ids)
	}
	return nil
}

func (m *MockSubmissionStorage) RolloverWithTx(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID, views int64) error {
	if m.RolloverWithTxFunc != nil {
		return m.RolloverWithTxFunc(ctx, tx, submissionID, views)
	}
	return nil
}

func (m *MockSubmissionStorage) ReleaseWithTx(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID) error {
	if m.ReleaseWithTxFunc != nil {
		return m.ReleaseWithTxFunc(ctx, tx, submissionID)
	}
	return nil
}

// MockStatsStorage - мок для тестов.
type MockStatsStorage struct {
	RecordPaymentFunc           func(ctx context.Context, campaignID, creatorID uuid.UUID, views int64, amount decimal.Decimal, paidAt time.Time) error
	GetByCampaignAndCreatorFunc func(ctx context.Context, campaignID, creatorID uuid.UUID) (*models.CampaignAccountStats, error)
}

func (m *MockStatsStorage) RecordPayment(ctx context.Context, campaignID, creatorID uuid.UUID, views int64, amount decimal.Decimal, paidAt time.Time) error {
	if m.RecordPaymentFunc != nil {
		return m.RecordPaymentFunc(ctx, campaignID, creatorID, views, amount, paidAt)
	}
	return nil
}

func (m *MockStatsStorage) GetByCampaignAndCreator(ctx context.Context, campaignID, creatorID uuid.UUID) (*models.CampaignAccountStats, error) {
	if m.GetByCampaignAndCreatorFunc != nil {
		return m.GetByCampaignAndCreatorFunc(ctx, campaignID, creatorID)
	}
	return nil, nil
}
