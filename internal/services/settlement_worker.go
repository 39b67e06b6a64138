package services

import (
	"context"
	"log"
	"time"

	"github.com/clipmarket/payouts/internal/metrics"
)

const sweepBatchSize = 100

// SettlementWorker периодически завершает заявки, у которых не осталось
// неразрешённых позиций. Обычный путь завершения - транзакция одобрения;
// сверка закрывает случай, когда последнюю pending-позицию убрала
// модерация (clawback) вне этой транзакции.
type SettlementWorker struct {
	payoutStorage PayoutStorage
	interval      time.Duration
	logger        *log.Logger
	now           func() time.Time
}

func NewSettlementWorker(payoutStorage PayoutStorage, interval time.Duration, logger *log.Logger) *SettlementWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SettlementWorker{
		payoutStorage: payoutStorage,
		interval:      interval,
		logger:        logger,
		now:           time.Now,
	}
}

// Start запускает сверку в отдельной горутине и останавливается по ctx.Done().
func (w *SettlementWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		if err := w.Sweep(ctx); err != nil {
			w.logger.Printf("settlement sweep error on initial run: %v", err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.Sweep(ctx); err != nil {
					w.logger.Printf("settlement sweep error: %v", err)
				}
			}
		}
	}()
}

// Sweep завершает один батч рассчитанных заявок.
func (w *SettlementWorker) Sweep(ctx context.Context) error {
	ids, err := w.payoutStorage.GetSettledClearingRequestIDs(ctx, sweepBatchSize)
	if err != nil {
		return err
	}

	for _, id := range ids {
		done, err := w.payoutStorage.CompleteIfSettled(ctx, id, w.now())
		if err != nil {
			w.logger.Printf("failed to complete request %s: %v", id, err)
			continue
		}
		if done {
			w.logger.Printf("settlement sweep completed request %s", id)
			metrics.RequestsCompletedTotal.Inc()
		}
	}
	return nil
}
