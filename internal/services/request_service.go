package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/clipmarket/payouts/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNothingToPayout = errors.New("no submissions available for payout")
	ErrBelowMinimum    = errors.New("payout amount below minimum")
)

// RequestService описывает подачу заявки на выплату и чтение заявок.
type RequestService interface {
	CreateRequest(ctx context.Context, creatorID uuid.UUID) (*models.PayoutRequest, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*RequestWithItems, error)
	GetCreatorRequests(ctx context.Context, creatorID uuid.UUID) ([]*RequestWithItems, error)
}

// RequestWithItems - заявка вместе с позициями для проекции статуса.
type RequestWithItems struct {
	Request *models.PayoutRequest
	Items   []*models.PayoutItem
}

type RequestServiceImpl struct {
	pool              *pgxpool.Pool
	payoutStorage     PayoutStorage
	submissionStorage SubmissionStorage
	clearingPeriod    time.Duration
	minAmount         decimal.Decimal
	now               func() time.Time
}

// NewRequestService создаёт сервис заявок.
func NewRequestService(pool *pgxpool.Pool, payoutStorage PayoutStorage, submissionStorage SubmissionStorage, clearingPeriod time.Duration, minAmount decimal.Decimal) *RequestServiceImpl {
	return &RequestServiceImpl{
		pool:              pool,
		payoutStorage:     payoutStorage,
		submissionStorage: submissionStorage,
		clearingPeriod:    clearingPeriod,
		minAmount:         minAmount,
		now:               time.Now,
	}
}

// CreateRequest подаёт заявку: собирает available-сабмишены с положительным
// накопленным заработком, снимает снимок неоплаченных просмотров в позиции
// и блокирует сабмишены до разрешения заявки. Одна транзакция.
func (s *RequestServiceImpl) CreateRequest(ctx context.Context, creatorID uuid.UUID) (*models.PayoutRequest, error) {
	subs, err := s.submissionStorage.GetAvailableByCreatorID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNothingToPayout
	}

	now := s.now()
	req, items := buildPayoutRequest(creatorID, subs, now, s.clearingPeriod)
	if req.TotalAmount.LessThan(s.minAmount) {
		return nil, ErrBelowMinimum
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.payoutStorage.CreateRequestWithTx(ctx, tx, req); err != nil {
		return nil, err
	}
	if err := s.payoutStorage.CreateItemsWithTx(ctx, tx, items); err != nil {
		return nil, err
	}

	submissionIDs := make([]uuid.UUID, 0, len(subs))
	for _, sub := range subs {
		submissionIDs = append(submissionIDs, sub.ID)
	}
	if err := s.submissionStorage.LockForPayoutWithTx(ctx, tx, submissionIDs); err != nil {
		// Сабмишен ушёл из available между снимком и блокировкой:
		// для криейтора это повторяемый конфликт, а не сбой сервиса.
		if errors.Is(err, storage.ErrSubmissionConflict) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return req, nil
}

// GetRequest возвращает заявку с позициями.
func (s *RequestServiceImpl) GetRequest(ctx context.Context, requestID uuid.UUID) (*RequestWithItems, error) {
	req, err := s.payoutStorage.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	items, err := s.payoutStorage.GetItemsByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &RequestWithItems{Request: req, Items: items}, nil
}

// GetCreatorRequests возвращает заявки криейтора с позициями.
func (s *RequestServiceImpl) GetCreatorRequests(ctx context.Context, creatorID uuid.UUID) ([]*RequestWithItems, error) {
	requests, err := s.payoutStorage.GetRequestsByCreatorID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	result := make([]*RequestWithItems, 0, len(requests))
	for _, req := range requests {
		items, err := s.payoutStorage.GetItemsByRequestID(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &RequestWithItems{Request: req, Items: items})
	}
	return result, nil
}

// buildPayoutRequest формирует заявку и позиции из сабмишенов. total_amount
// и views_at_request фиксируются здесь и далее не пересчитываются.
func buildPayoutRequest(creatorID uuid.UUID, subs []*models.Submission, now time.Time, clearingPeriod time.Duration) (*models.PayoutRequest, []*models.PayoutItem) {
	req := &models.PayoutRequest{
		ID:             uuid.New(),
		CreatorID:      creatorID,
		TotalAmount:    decimal.Zero,
		Status:         models.RequestStatusClearing,
		CreatedAt:      now,
		ClearingEndsAt: now.Add(clearingPeriod),
	}

	items := make([]*models.PayoutItem, 0, len(subs))
	for _, sub := range subs {
		items = append(items, &models.PayoutItem{
			ID:              uuid.New(),
			PayoutRequestID: req.ID,
			SubmissionID:    sub.ID,
			SourceType:      sub.SourceType,
			SourceID:        sub.SourceID,
			Amount:          sub.PendingEarnings,
			ViewsAtRequest:  sub.UnpaidViews(),
			Status:          models.ItemStatusPending,
			CreatedAt:       now,
		})
		req.TotalAmount = req.TotalAmount.Add(sub.PendingEarnings)
	}

	return req, items
}
