package services

import (
	"context"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
)

// WalletService описывает чтение кошелька и его журнала.
type WalletService interface {
	GetBalance(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error)
	GetHistory(ctx context.Context, creatorID uuid.UUID) ([]*models.WalletTransaction, error)
	GetRequestTransactions(ctx context.Context, requestID uuid.UUID) ([]*models.WalletTransaction, error)
}

type WalletServiceImpl struct {
	walletStorage WalletStorage
	payoutStorage PayoutStorage
}

// NewWalletService создаёт сервис кошелька.
func NewWalletService(walletStorage WalletStorage, payoutStorage PayoutStorage) *WalletServiceImpl {
	return &WalletServiceImpl{walletStorage: walletStorage, payoutStorage: payoutStorage}
}

// GetBalance возвращает кошелёк криейтора.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	return s.walletStorage.GetByCreatorID(ctx, creatorID)
}

// GetHistory возвращает журнал кошелька криейтора.
func (s *WalletServiceImpl) GetHistory(ctx context.Context, creatorID uuid.UUID) ([]*models.WalletTransaction, error) {
	return s.walletStorage.GetTransactionsByCreatorID(ctx, creatorID)
}

// GetRequestTransactions возвращает записи журнала по заявке - сверочный
// ответ на вопрос "почему изменился баланс" для ревью выплат.
func (s *WalletServiceImpl) GetRequestTransactions(ctx context.Context, requestID uuid.UUID) ([]*models.WalletTransaction, error) {
	if _, err := s.payoutStorage.GetRequestByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.walletStorage.GetTransactionsByRequestID(ctx, requestID)
}
