package clearing

import (
	"time"

	"github.com/clipmarket/payouts/internal/models"
)

// DisplayStatus - производный статус заявки для UI и отчётов.
// "flagged" и "ready" не хранятся, а вычисляются из позиций и таймстемпов.
type DisplayStatus string

const (
	DisplayCompleted DisplayStatus = "completed"
	DisplayCancelled DisplayStatus = "cancelled"
	DisplayFlagged   DisplayStatus = "flagged"
	DisplayReady     DisplayStatus = "ready"
	DisplayClearing  DisplayStatus = "clearing"
)

// Projection - результат проекции статуса заявки.
type Projection struct {
	Status           DisplayStatus
	ProgressFraction float64
	Remaining        time.Duration
}

// Project вычисляет отображаемый статус заявки. Порядок приоритетов
// фиксирован: completed, cancelled, flagged, ready, clearing.
func Project(req *models.PayoutRequest, items []*models.PayoutItem, now time.Time) Projection {
	p := Projection{
		ProgressFraction: ProgressFraction(req, now),
		Remaining:        Remaining(req.ClearingEndsAt, now),
	}

	switch {
	case req.Status == models.RequestStatusCompleted:
		p.Status = DisplayCompleted
		p.Remaining = 0
	case req.Status == models.RequestStatusCancelled:
		p.Status = DisplayCancelled
	case anyFlagged(items):
		p.Status = DisplayFlagged
	case !now.Before(req.ClearingEndsAt):
		p.Status = DisplayReady
	default:
		p.Status = DisplayClearing
	}

	return p
}

// ProgressFraction возвращает долю пройденного окна в [0, 1].
// Для завершённой заявки всегда 1. Значение информационное и не влияет
// на допустимость флага или одобрения.
func ProgressFraction(req *models.PayoutRequest, now time.Time) float64 {
	if req.Status == models.RequestStatusCompleted {
		return 1
	}

	total := req.ClearingEndsAt.Sub(req.CreatedAt)
	if total <= 0 {
		return 1
	}

	frac := float64(now.Sub(req.CreatedAt)) / float64(total)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// anyFlagged учитывает только неразрешённые флаги: изъятая позиция
// сохраняет flagged_at, но модерации больше не требует.
func anyFlagged(items []*models.PayoutItem) bool {
	for _, it := range items {
		if it.Flagged() && !it.ClawedBack() {
			return true
		}
	}
	return false
}
