package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmissionPayoutStatus описывает учётный статус сабмишена.
// После выплаты сабмишен возвращается в available и может накапливать
// новые неоплаченные просмотры для следующей заявки.
type SubmissionPayoutStatus string

const (
	SubmissionPayoutAvailable SubmissionPayoutStatus = "available"
	SubmissionPayoutLocked    SubmissionPayoutStatus = "locked"
)

// Submission представляет видео-сабмишен криейтора.
// Ядро выплат читает просмотры и двигает только paid_views и payout_status.
type Submission struct {
	ID              uuid.UUID              `db:"id"`
	CreatorID       uuid.UUID              `db:"creator_id"`
	SourceType      SourceType             `db:"source_type"`
	SourceID        uuid.UUID              `db:"source_id"`
	Views           int64                  `db:"views"`
	PaidViews       int64                  `db:"paid_views"`
	PendingEarnings decimal.Decimal        `db:"pending_earnings"`
	PayoutStatus    SubmissionPayoutStatus `db:"payout_status"`
	CreatedAt       time.Time              `db:"created_at"`
	UpdatedAt       time.Time              `db:"updated_at"`
}

// UnpaidViews возвращает просмотры, ещё не учтённые ни одной выплатой.
func (s *Submission) UnpaidViews() int64 {
	if s.Views < s.PaidViews {
		return 0
	}
	return s.Views - s.PaidViews
}

// CampaignAccountStats - аналитический агрегат "кампания + криейтор".
// Обновляется best-effort после успешного расчёта, не является частью леджера.
type CampaignAccountStats struct {
	CampaignID        uuid.UUID       `db:"campaign_id"`
	CreatorID         uuid.UUID       `db:"creator_id"`
	PaidViews         int64           `db:"paid_views"`
	LastPaymentAmount decimal.Decimal `db:"last_payment_amount"`
	LastPaymentAt     time.Time       `db:"last_payment_at"`
}
