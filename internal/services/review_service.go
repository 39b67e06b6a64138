package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrItemNotFlagged  = errors.New("payout item is not flagged")
	ErrAlreadyReviewed = errors.New("payout item already clawed back")
)

// DefaultClawbackReason подставляется при изъятии без указанной причины.
const DefaultClawbackReason = "flagged content violation"

// ReviewService - модерационный путь для зафлаганных позиций. Он намеренно
// отделён от расчётного движка: внутри движка флаг терминален.
type ReviewService interface {
	ClearFlag(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error
	Clawback(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error
}

type ReviewServiceImpl struct {
	pool              *pgxpool.Pool
	payoutStorage     PayoutStorage
	walletStorage     WalletStorage
	submissionStorage SubmissionStorage
	now               func() time.Time
}

// NewReviewService создаёт сервис модерации флагов.
func NewReviewService(pool *pgxpool.Pool, payoutStorage PayoutStorage, walletStorage WalletStorage, submissionStorage SubmissionStorage) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		pool:              pool,
		payoutStorage:     payoutStorage,
		walletStorage:     walletStorage,
		submissionStorage: submissionStorage,
		now:               time.Now,
	}
}

// ClearFlag снимает флаг: позиция возвращается в pending и снова может
// быть одобрена обычным путём. Clear не терминален: зафлаганная повторно
// позиция проходит модерацию заново, иначе она зависла бы навсегда и
// заморозила заявку. Терминально только изъятие.
func (s *ReviewServiceImpl) ClearFlag(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error {
	item, err := s.payoutStorage.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.ClawedBack() {
		return ErrAlreadyReviewed
	}
	if !item.Flagged() {
		return ErrItemNotFlagged
	}

	ok, err := s.payoutStorage.ClearFlag(ctx, itemID, reviewedBy, strings.TrimSpace(reason), s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrencyConflict
	}
	return nil
}

// Clawback изымает позицию. Зафлаганная pending-позиция просто навсегда
// исключается из одобрения: деньги по ней не двигались. Уже одобренная
// позиция изымается с возвратом средств: баланс дебетуется и в журнал
// кошелька пишется запись типа clawback. В обоих случаях сабмишен
// разблокируется, и если это была последняя неразрешённая позиция -
// заявка завершается.
func (s *ReviewServiceImpl) Clawback(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error {
	item, err := s.payoutStorage.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.ClawedBack() {
		return ErrAlreadyReviewed
	}
	if !item.Flagged() && item.Status != models.ItemStatusApproved {
		return ErrItemNotFlagged
	}

	req, err := s.payoutStorage.GetRequestByID(ctx, item.PayoutRequestID)
	if err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultClawbackReason
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ok, err := s.payoutStorage.ClawbackItemTx(ctx, tx, itemID, reviewedBy, reason, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrencyConflict
	}

	if item.Status == models.ItemStatusApproved {
		if err := s.walletStorage.DebitWithTx(ctx, tx, req.CreatorID, item.Amount); err != nil {
			return err
		}
		txn := &models.WalletTransaction{
			CreatorID:   req.CreatorID,
			Amount:      item.Amount.Neg(),
			Type:        models.TransactionTypeClawback,
			Description: fmt.Sprintf("Clawback of payout item %s", item.ID),
			Metadata: models.TransactionMetadata{
				PayoutRequestID: item.PayoutRequestID,
				Scope:           models.ScopeSource(item.SourceType, item.SourceID).String(),
				ApprovedBy:      reviewedBy,
				ItemIDs:         []uuid.UUID{item.ID},
			},
		}
		if err := s.walletStorage.CreateTransactionWithTx(ctx, tx, txn); err != nil {
			return err
		}
	}

	if err := s.submissionStorage.ReleaseWithTx(ctx, tx, item.SubmissionID); err != nil {
		return err
	}

	if _, err := s.payoutStorage.CompleteIfSettledTx(ctx, tx, item.PayoutRequestID, s.now()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
