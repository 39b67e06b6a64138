package services

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/clipmarket/payouts/internal/storage"
	"github.com/google/uuid"
)

func TestSweepCompletesSettledRequests(t *testing.T) {
	settled := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	completed := make(map[uuid.UUID]bool)

	mock := &storage.MockPayoutStorage{
		GetSettledClearingRequestIDsFunc: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			if limit != sweepBatchSize {
				t.Errorf("limit = %d, want %d", limit, sweepBatchSize)
			}
			return settled, nil
		},
		CompleteIfSettledFunc: func(ctx context.Context, requestID uuid.UUID, now time.Time) (bool, error) {
			completed[requestID] = true
			return true, nil
		},
	}

	w := NewSettlementWorker(mock, time.Minute, log.Default())
	if err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	for _, id := range settled {
		if !completed[id] {
			t.Errorf("request %s was not completed", id)
		}
	}
}

func TestSweepContinuesAfterPerRequestError(t *testing.T) {
	failing := uuid.New()
	ok := uuid.New()
	var completed []uuid.UUID

	mock := &storage.MockPayoutStorage{
		GetSettledClearingRequestIDsFunc: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			return []uuid.UUID{failing, ok}, nil
		},
		CompleteIfSettledFunc: func(ctx context.Context, requestID uuid.UUID, now time.Time) (bool, error) {
			if requestID == failing {
				return false, errors.New("deadlock detected")
			}
			completed = append(completed, requestID)
			return true, nil
		},
	}

	w := NewSettlementWorker(mock, time.Minute, log.Default())
	if err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if len(completed) != 1 || completed[0] != ok {
		t.Errorf("completed = %v, want [%s]", completed, ok)
	}
}

func TestSweepPropagatesListError(t *testing.T) {
	wantErr := errors.New("connection refused")
	mock := &storage.MockPayoutStorage{
		GetSettledClearingRequestIDsFunc: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			return nil, wantErr
		},
	}

	w := NewSettlementWorker(mock, time.Minute, log.Default())
	if err := w.Sweep(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Sweep() error = %v, want %v", err, wantErr)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	sweeps := make(chan struct{}, 10)
	mock := &storage.MockPayoutStorage{
		GetSettledClearingRequestIDsFunc: func(ctx context.Context, limit int) ([]uuid.UUID, error) {
			select {
			case sweeps <- struct{}{}:
			default:
			}
			return nil, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewSettlementWorker(mock, 10*time.Millisecond, log.Default())
	w.Start(ctx)

	// Первый проход выполняется сразу при старте.
	select {
	case <-sweeps:
	case <-time.After(time.Second):
		t.Fatal("initial sweep did not run")
	}

	cancel()
	time.Sleep(50 * time.Millisecond)

	// После отмены контекста новые проходы не запускаются.
	for len(sweeps) > 0 {
		<-sweeps
	}
	time.Sleep(50 * time.Millisecond)
	if len(sweeps) != 0 {
		t.Error("sweep ran after context cancellation")
	}
}
