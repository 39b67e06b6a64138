package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/clipmarket/payouts/internal/metrics"
	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

var (
	ErrNothingToApprove    = errors.New("nothing to approve in scope")
	ErrItemFlagged         = errors.New("payout item is flagged")
	ErrItemApproved        = errors.New("payout item already approved")
	ErrRequestCancelled    = errors.New("payout request is cancelled")
	ErrConcurrencyConflict = errors.New("concurrent update detected")
)

// ApprovalService описывает операцию скоупного одобрения выплаты.
type ApprovalService interface {
	ApprovePayout(ctx context.Context, requestID uuid.UUID, scope models.Scope, approvedBy uuid.UUID) (*ApprovalResult, error)
}

// ApprovalResult - итог одобрения: зачисленная сумма и новый статус заявки.
type ApprovalResult struct {
	CreditedAmount decimal.Decimal
	RequestStatus  models.RequestStatus
}

// ApprovalServiceImpl - расчётный движок. Шаги 4-9 (одобрение позиций,
// завершение заявки, зачисление, журнал, прокат учёта сабмишенов)
// выполняются в одной транзакции: частичный отказ между зачислением и
// прокатом просмотров означал бы повторную оплату тех же просмотров.
type ApprovalServiceImpl struct {
	pool              *pgxpool.Pool
	payoutStorage     PayoutStorage
	walletStorage     WalletStorage
	submissionStorage SubmissionStorage
	statsStorage      StatsStorage
	logger            *log.Logger
	now               func() time.Time
}

// NewApprovalService создаёт расчётный движок.
func NewApprovalService(pool *pgxpool.Pool, payoutStorage PayoutStorage, walletStorage WalletStorage, submissionStorage SubmissionStorage, statsStorage StatsStorage, logger *log.Logger) *ApprovalServiceImpl {
	if logger == nil {
		logger = log.Default()
	}
	return &ApprovalServiceImpl{
		pool:              pool,
		payoutStorage:     payoutStorage,
		walletStorage:     walletStorage,
		submissionStorage: submissionStorage,
		statsStorage:      statsStorage,
		logger:            logger,
		now:               time.Now,
	}
}

// ApprovePayout одобряет позиции заявки в скоупе. Конфликт конкурирующего
// перехода (флаг или одобрение успели раньше) ретраится ограниченное число
// раз, бизнес-отказы возвращаются вызывающему без ретрая.
func (s *ApprovalServiceImpl) ApprovePayout(ctx context.Context, requestID uuid.UUID, scope models.Scope, approvedBy uuid.UUID) (*ApprovalResult, error) {
	var (
		result  *ApprovalResult
		settled []*models.PayoutItem
		creator uuid.UUID
	)

	backoff := retry.WithMaxRetries(3, retry.NewConstant(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, items, creatorID, err := s.approveOnce(ctx, requestID, scope, approvedBy)
		if err != nil {
			if errors.Is(err, ErrConcurrencyConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		result, settled, creator = res, items, creatorID
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ApprovalsTotal.Inc()
	credited, _ := result.CreditedAmount.Float64()
	metrics.CreditedAmountTotal.Add(credited)
	if result.RequestStatus == models.RequestStatusCompleted {
		metrics.RequestsCompletedTotal.Inc()
	}

	s.recordCampaignStats(ctx, scope, creator, settled, result.CreditedAmount)

	return result, nil
}

func (s *ApprovalServiceImpl) approveOnce(ctx context.Context, requestID uuid.UUID, scope models.Scope, approvedBy uuid.UUID) (*ApprovalResult, []*models.PayoutItem, uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокировка строки заявки сериализует конкурирующие одобрения,
	// поэтому проверка завершённости видит согласованный снимок позиций.
	req, err := s.payoutStorage.GetRequestForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}
	if req.Status == models.RequestStatusCancelled {
		return nil, nil, uuid.Nil, ErrRequestCancelled
	}

	items, err := s.payoutStorage.GetItemsByRequestIDTx(ctx, tx, requestID)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}

	plan, err := planApproval(items, scope)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}

	now := s.now()
	updated, err := s.payoutStorage.ApproveItemsTx(ctx, tx, plan.itemIDs, approvedBy, now)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}
	if len(updated) != len(plan.itemIDs) {
		// Кто-то успел зафлагать или одобрить позицию между снимком и
		// апдейтом. Транзакция откатывается и повторяется целиком.
		return nil, nil, uuid.Nil, ErrConcurrencyConflict
	}

	completed, err := s.payoutStorage.CompleteIfSettledTx(ctx, tx, requestID, now)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}

	if err := s.walletStorage.CreditWithTx(ctx, tx, req.CreatorID, plan.amount); err != nil {
		return nil, nil, uuid.Nil, err
	}

	txn := &models.WalletTransaction{
		CreatorID:   req.CreatorID,
		Amount:      plan.amount,
		Type:        models.TransactionTypeEarning,
		Description: fmt.Sprintf("Payout settlement for request %s", req.ID),
		Metadata: models.TransactionMetadata{
			PayoutRequestID: req.ID,
			Scope:           scope.String(),
			ApprovedBy:      approvedBy,
			ItemIDs:         plan.itemIDs,
		},
	}
	if err := s.walletStorage.CreateTransactionWithTx(ctx, tx, txn); err != nil {
		return nil, nil, uuid.Nil, err
	}

	// Прокат учёта выполняется ровно один раз на позицию: он привязан к
	// успешному переходу pending -> approved в этой же транзакции.
	for _, it := range updated {
		if err := s.submissionStorage.RolloverWithTx(ctx, tx, it.SubmissionID, it.ViewsAtRequest); err != nil {
			return nil, nil, uuid.Nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, uuid.Nil, fmt.Errorf("commit tx: %w", err)
	}

	status := models.RequestStatusClearing
	if completed {
		status = models.RequestStatusCompleted
	}

	return &ApprovalResult{CreditedAmount: plan.amount, RequestStatus: status}, updated, req.CreatorID, nil
}

// recordCampaignStats прокатывает аналитический агрегат после коммита
// расчёта. Ошибка здесь не откатывает выплату: агрегат отчётный.
func (s *ApprovalServiceImpl) recordCampaignStats(ctx context.Context, scope models.Scope, creatorID uuid.UUID, settled []*models.PayoutItem, amount decimal.Decimal) {
	sourceType, sourceID, ok := scope.Source()
	if !ok || sourceType != models.SourceTypeCampaign {
		return
	}

	var views int64
	for _, it := range settled {
		views += it.ViewsAtRequest
	}

	if err := s.statsStorage.RecordPayment(ctx, sourceID, creatorID, views, amount, s.now()); err != nil {
		s.logger.Printf("failed to record campaign stats for %s: %v", sourceID, err)
	}
}

// approvalPlan - подмножество позиций к одобрению и сумма зачисления.
type approvalPlan struct {
	itemIDs []uuid.UUID
	amount  decimal.Decimal
}

// planApproval валидирует скоуп до каких-либо мутаций. Политика смешанных
// батчей: любой флаг в скоупе - отказ; смесь одобренных и pending - отказ;
// скоуп, где одобрено уже всё, - ErrNothingToApprove (повторный вызов
// безопасен и не порождает второй записи журнала). Изъятые позиции
// разрешены модерацией и не блокируют одобрение остальных.
func planApproval(items []*models.PayoutItem, scope models.Scope) (*approvalPlan, error) {
	var (
		inScope  int
		approved int
		pending  []*models.PayoutItem
	)

	for _, it := range items {
		if !scope.Matches(it) || it.ClawedBack() {
			continue
		}
		inScope++
		if it.Flagged() {
			return nil, fmt.Errorf("item %s: %w", it.ID, ErrItemFlagged)
		}
		switch it.Status {
		case models.ItemStatusApproved:
			approved++
		case models.ItemStatusPending:
			pending = append(pending, it)
		}
	}

	if inScope == 0 || len(pending) == 0 {
		return nil, ErrNothingToApprove
	}
	if approved > 0 {
		return nil, fmt.Errorf("%d of %d items in scope: %w", approved, inScope, ErrItemApproved)
	}

	plan := &approvalPlan{amount: decimal.Zero}
	for _, it := range pending {
		plan.itemIDs = append(plan.itemIDs, it.ID)
		plan.amount = plan.amount.Add(it.Amount)
	}
	return plan, nil
}
