package services

import (
	"context"
	"time"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PayoutStorage определяет интерфейс для работы с заявками и позициями.
type PayoutStorage interface {
	CreateRequestWithTx(ctx context.Context, tx pgx.Tx, req *models.PayoutRequest) error
	CreateItemsWithTx(ctx context.Context, tx pgx.Tx, items []*models.PayoutItem) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	GetRequestForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.PayoutRequest, error)
	GetRequestsByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.PayoutRequest, error)
	GetItemByID(ctx context.Context, id uuid.UUID) (*models.PayoutItem, error)
	GetItemsByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.PayoutItem, error)
	GetItemsByRequestIDTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) ([]*models.PayoutItem, error)
	FlagItem(ctx context.Context, itemID, flaggedBy uuid.UUID, reason string, now time.Time) (bool, error)
	ApproveItemsTx(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID, approvedBy uuid.UUID, now time.Time) ([]*models.PayoutItem, error)
	CompleteIfSettledTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, now time.Time) (bool, error)
	CompleteIfSettled(ctx context.Context, requestID uuid.UUID, now time.Time) (bool, error)
	GetSettledClearingRequestIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	ClearFlag(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error)
	ClawbackItemTx(ctx context.Context, tx pgx.Tx, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error)
}

// WalletStorage определяет интерфейс для работы с кошельками и журналом.
type WalletStorage interface {
	GetByCreatorID(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error)
	CreditWithTx(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error
	DebitWithTx(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error
	CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, txn *models.WalletTransaction) error
	GetTransactionsByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.WalletTransaction, error)
	GetTransactionsByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.WalletTransaction, error)
}

// SubmissionStorage определяет интерфейс для учётной части сабмишенов.
type SubmissionStorage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetAvailableByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.Submission, error)
	LockForPayoutWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
	RolloverWithTx(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID, views int64) error
	ReleaseWithTx(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID) error
}

// StatsStorage определяет интерфейс для аналитического агрегата кампаний.
type StatsStorage interface {
	RecordPayment(ctx context.Context, campaignID, creatorID uuid.UUID, views int64, amount decimal.Decimal, paidAt time.Time) error
	GetByCampaignAndCreator(ctx context.Context, campaignID, creatorID uuid.UUID) (*models.CampaignAccountStats, error)
}
