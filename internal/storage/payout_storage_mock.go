package storage

import (
	"context"
	"time"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MockPayoutStorage - мок для тестов.
type MockPayoutStorage struct {
	CreateRequestWithTxFunc          func(ctx context.Context, tx pgx.Tx, req *models.PayoutRequest) error
	CreateItemsWithTxFunc            func(ctx context.Context, tx pgx.Tx, items []*models.PayoutItem) error
	GetRequestByIDFunc               func(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	GetRequestForUpdateTxFunc        func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.PayoutRequest, error)
	GetRequestsByCreatorIDFunc       func(ctx context.Context, creatorID uuid.UUID) ([]*models.PayoutRequest, error)
	GetItemByIDFunc                  func(ctx context.Context, id uuid.UUID) (*models.PayoutItem, error)
	GetItemsByRequestIDFunc          func(ctx context.Context, requestID uuid.UUID) ([]*models.PayoutItem, error)
	GetItemsByRequestIDTxFunc        func(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) ([]*models.PayoutItem, error)
	FlagItemFunc                     func(ctx context.Context, itemID, flaggedBy uuid.UUID, reason string, now time.Time) (bool, error)
	ApproveItemsTxFunc               func(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID, approvedBy uuid.UUID, now time.Time) ([]*models.PayoutItem, error)
	CompleteIfSettledTxFunc          func(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, now time.Time) (bool, error)
	CompleteIfSettledFunc            func(ctx context.Context, requestID uuid.UUID, now time.Time) (bool, error)
	GetSettledClearingRequestIDsFunc func(ctx context.Context, limit int) ([]uuid.UUID, error)
	ClearFlagFunc                    func(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error)
	ClawbackItemTxFunc               func(ctx context.Context, tx pgx.Tx, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error)
}

func (m *MockPayoutStorage) CreateRequestWithTx(ctx context.Context, tx pgx.Tx, req *models.PayoutRequest) error {
	if m.CreateRequestWithTxFunc != nil {
		return m.CreateRequestWithTxFunc(ctx, tx, req)
	}
	return nil
}

func (m *MockPayoutStorage) CreateItemsWithTx(ctx context.Context, tx pgx.Tx, items []*models.PayoutItem) error {
	if m.CreateItemsWithTxFunc != nil {
		return m.CreateItemsWithTxFunc(ctx, tx, items)
	}
	return nil
}

func (m *MockPayoutStorage) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	if m.GetRequestByIDFunc != nil {
		return m.GetRequestByIDFunc(ctx, id)
	}
	return nil, ErrRequestNotFound
}

func (m *MockPayoutStorage) GetRequestForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.PayoutRequest, error) {
	if m.GetRequestForUpdateTxFunc != nil {
		return m.GetRequestForUpdateTxFunc(ctx, tx, id)
	}
	return nil, ErrRequestNotFound
}

func (m *MockPayoutStorage) GetRequestsByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.PayoutRequest, error) {
	if m.GetRequestsByCreatorIDFunc != nil {
		return m.GetRequestsByCreatorIDFunc(ctx, creatorID)
	}
	return []*models.PayoutRequest{}, nil
}

func (m *MockPayoutStorage) GetItemByID(ctx context.Context, id uuid.UUID) (*models.PayoutItem, error) {
	if m.GetItemByIDFunc != nil {
		return m.GetItemByIDFunc(ctx, id)
	}
	return nil, ErrItemNotFound
}

func (m *MockPayoutStorage) GetItemsByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.PayoutItem, error) {
	if m.GetItemsByRequestIDFunc != nil {
		return m.GetItemsByRequestIDFunc(ctx, requestID)
	}
	return []*models.PayoutItem{}, nil
}

func (m *MockPayoutStorage) GetItemsByRequestIDTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) ([]*models.PayoutItem, error) {
	if m.GetItemsByRequestIDTxFunc != nil {
		return m.GetItemsByRequestIDTxFunc(ctx, tx, requestID)
	}
	return []*models.PayoutItem{}, nil
}

func (m *MockPayoutStorage) FlagItem(ctx context.Context, itemID, flaggedBy uuid.UUID, reason string, now time.Time) (bool, error) {
	if m.FlagItemFunc != nil {
		return m.FlagItemFunc(ctx, itemID, flaggedBy, reason, now)
	}
	return true, nil
}

func (m *MockPayoutStorage) ApproveItemsTx(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID, approvedBy uuid.UUID, now time.Time) ([]*models.PayoutItem, error) {
	if m.ApproveItemsTxFunc != nil {
		return m.ApproveItemsTxFunc(ctx, tx, itemIDs, approvedBy, now)
	}
	return []*models.PayoutItem{}, nil
}

func (m *MockPayoutStorage) CompleteIfSettledTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, now time.Time) (bool, error) {
	if m.CompleteIfSettledTxFunc != nil {
		return m.CompleteIfSettledTxFunc(ctx, tx, requestID, now)
	}
	return false, nil
}

func (m *MockPayoutStorage) CompleteIfSettled(ctx context.Context, requestID uuid.UUID, now time.Time) (bool, error) {
	if m.CompleteIfSettledFunc != nil {
		return m.CompleteIfSettledFunc(ctx, requestID, now)
	}
	return false, nil
}

func (m *MockPayoutStorage) GetSettledClearingRequestIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if m.GetSettledClearingRequestIDsFunc != nil {
		return m.GetSettledClearingRequestIDsFunc(ctx, limit)
	}
	return []uuid.UUID{}, nil
}

func (m *MockPayoutStorage) ClearFlag(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error) {
	if m.ClearFlagFunc != nil {
		return m.ClearFlagFunc(ctx, itemID, reviewedBy, reason, now)
	}
	return true, nil
}

func (m *MockPayoutStorage) ClawbackItemTx(ctx context.Context, tx pgx.Tx, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error) {
	if m.ClawbackItemTxFunc != nil {
		return m.ClawbackItemTxFunc(ctx, tx, itemID, reviewedBy, reason, now)
	}
	return true, nil
}
