package clearing

import (
	"math"
	"testing"
	"time"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
)

func newRequest(status models.RequestStatus, createdAt time.Time, window time.Duration) *models.PayoutRequest {
	return &models.PayoutRequest{
		ID:             uuid.New(),
		CreatorID:      uuid.New(),
		Status:         status,
		CreatedAt:      createdAt,
		ClearingEndsAt: createdAt.Add(window),
	}
}

func flaggedItem() *models.PayoutItem {
	now := time.Now()
	by := uuid.New()
	reason := "suspicious views"
	return &models.PayoutItem{
		ID:         uuid.New(),
		Status:     models.ItemStatusPending,
		FlaggedAt:  &now,
		FlaggedBy:  &by,
		FlagReason: &reason,
	}
}

func clawedBackItem() *models.PayoutItem {
	item := flaggedItem()
	clawed := models.ReviewStatusClawedBack
	item.ReviewStatus = &clawed
	return item
}

func TestProject_Precedence(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	tests := []struct {
		name  string
		req   *models.PayoutRequest
		items []*models.PayoutItem
		now   time.Time
		want  DisplayStatus
	}{
		{
			name:  "completed wins over everything",
			req:   newRequest(models.RequestStatusCompleted, createdAt, window),
			items: []*models.PayoutItem{flaggedItem()},
			now:   createdAt.Add(10 * 24 * time.Hour),
			want:  DisplayCompleted,
		},
		{
			name:  "cancelled wins over flags",
			req:   newRequest(models.RequestStatusCancelled, createdAt, window),
			items: []*models.PayoutItem{flaggedItem()},
			now:   createdAt.Add(time.Hour),
			want:  DisplayCancelled,
		},
		{
			name:  "flagged wins over ready",
			req:   newRequest(models.RequestStatusClearing, createdAt, window),
			items: []*models.PayoutItem{{Status: models.ItemStatusApproved}, flaggedItem()},
			now:   createdAt.Add(8 * 24 * time.Hour),
			want:  DisplayFlagged,
		},
		{
			// Изъятая позиция сохраняет flagged_at, но модерации уже не ждёт.
			name:  "clawed back flag does not hold the flagged status",
			req:   newRequest(models.RequestStatusClearing, createdAt, window),
			items: []*models.PayoutItem{{Status: models.ItemStatusPending}, clawedBackItem()},
			now:   createdAt.Add(2 * 24 * time.Hour),
			want:  DisplayClearing,
		},
		{
			name:  "ready once window elapsed",
			req:   newRequest(models.RequestStatusClearing, createdAt, window),
			items: []*models.PayoutItem{{Status: models.ItemStatusPending}},
			now:   createdAt.Add(window),
			want:  DisplayReady,
		},
		{
			name:  "clearing inside window",
			req:   newRequest(models.RequestStatusClearing, createdAt, window),
			items: []*models.PayoutItem{{Status: models.ItemStatusPending}},
			now:   createdAt.Add(2 * 24 * time.Hour),
			want:  DisplayClearing,
		},
		{
			name:  "clearing with no items",
			req:   newRequest(models.RequestStatusClearing, createdAt, window),
			items: nil,
			now:   createdAt,
			want:  DisplayClearing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.req, tt.items, tt.now)
			if got.Status != tt.want {
				t.Errorf("Project().Status = %v, want %v", got.Status, tt.want)
			}
		})
	}
}

func TestProject_Remaining(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	req := newRequest(models.RequestStatusClearing, createdAt, 7*24*time.Hour)

	p := Project(req, nil, createdAt.Add(5*24*time.Hour))
	if p.Remaining != 2*24*time.Hour {
		t.Errorf("Remaining = %v, want 48h", p.Remaining)
	}

	// Завершённая заявка не показывает остаток окна.
	req.Status = models.RequestStatusCompleted
	if p := Project(req, nil, createdAt); p.Remaining != 0 {
		t.Errorf("Remaining for completed = %v, want 0", p.Remaining)
	}
}

func TestProgressFraction(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	window := 10 * 24 * time.Hour

	tests := []struct {
		name   string
		status models.RequestStatus
		now    time.Time
		want   float64
	}{
		{"at creation", models.RequestStatusClearing, createdAt, 0},
		{"midway", models.RequestStatusClearing, createdAt.Add(5 * 24 * time.Hour), 0.5},
		{"past the end clamps to 1", models.RequestStatusClearing, createdAt.Add(20 * 24 * time.Hour), 1},
		{"before creation clamps to 0", models.RequestStatusClearing, createdAt.Add(-time.Hour), 0},
		{"completed forces 1", models.RequestStatusCompleted, createdAt, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(tt.status, createdAt, window)
			got := ProgressFraction(req, tt.now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ProgressFraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressFraction_DegenerateWindow(t *testing.T) {
	createdAt := time.Now()
	req := &models.PayoutRequest{
		Status:         models.RequestStatusClearing,
		CreatedAt:      createdAt,
		ClearingEndsAt: createdAt,
	}
	if got := ProgressFraction(req, createdAt); got != 1 {
		t.Errorf("ProgressFraction() for zero window = %v, want 1", got)
	}
}
