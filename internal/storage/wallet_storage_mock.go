package storage

import (
	"context"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MockWalletStorage - мок для тестов.
type MockWalletStorage struct {
	GetByCreatorIDFunc             func(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error)
	CreditWithTxFunc               func(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error
	DebitWithTxFunc                func(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error
	CreateTransactionWithTxFunc    func(ctx context.Context, tx pgx.Tx, txn *models.WalletTransaction) error
	GetTransactionsByRequestIDFunc func(ctx context.Context, requestID uuid.UUID) ([]*models.WalletTransaction, error)
	GetTransactionsByCreatorIDFunc func(ctx context.Context, creatorID uuid.UUID) ([]*models.WalletTransaction, error)
}

func (m *MockWalletStorage) GetByCreatorID(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	if m.GetByCreatorIDFunc != nil {
		return m.GetByCreatorIDFunc(ctx, creatorID)
	}
	return nil, ErrWalletNotFound
}

func (m *MockWalletStorage) CreditWithTx(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error {
	if m.CreditWithTxFunc != nil {
		return m.CreditWithTxFunc(ctx, tx, creatorID, amount)
	}
	return nil
}

func (m *MockWalletStorage) DebitWithTx(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error {
	if m.DebitWithTxFunc != nil {
		return m.DebitWithTxFunc(ctx, tx, creatorID, amount)
	}
	return nil
}

func (m *MockWalletStorage) CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, txn *models.WalletTransaction) error {
	if m.CreateTransactionWithTxFunc != nil {
		return m.CreateTransactionWithTxFunc(ctx, tx, txn)
	}
	return nil
}

func (m *MockWalletStorage) GetTransactionsByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.WalletTransaction, error) {
	if m.GetTransactionsByRequestIDFunc != nil {
		return m.GetTransactionsByRequestIDFunc(ctx, requestID)
	}
	return []*models.WalletTransaction{}, nil
}

func (m *MockWalletStorage) GetTransactionsByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.WalletTransaction, error) {
	if m.GetTransactionsByCreatorIDFunc != nil {
		return m.GetTransactionsByCreatorIDFunc(ctx, creatorID)
	}
	return []*models.WalletTransaction{}, nil
}
