package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus описывает хранимый статус заявки на выплату.
type RequestStatus string

const (
	RequestStatusClearing  RequestStatus = "clearing"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// ItemStatus описывает статус отдельной позиции заявки.
type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "pending"
	ItemStatusApproved ItemStatus = "approved"
)

// SourceType описывает источник заработка позиции: кампания или буст.
type SourceType string

const (
	SourceTypeCampaign SourceType = "campaign"
	SourceTypeBoost    SourceType = "boost"
)

// ReviewStatus описывает решение модерации по зафлаганной позиции.
type ReviewStatus string

const (
	ReviewStatusCleared    ReviewStatus = "cleared"
	ReviewStatusClawedBack ReviewStatus = "clawed_back"
)

// PayoutRequest представляет заявку криейтора на выплату.
type PayoutRequest struct {
	ID             uuid.UUID       `db:"id"`
	CreatorID      uuid.UUID       `db:"creator_id"`
	TotalAmount    decimal.Decimal `db:"total_amount"`
	Status         RequestStatus   `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
	ClearingEndsAt time.Time       `db:"clearing_ends_at"`
	CompletedAt    *time.Time      `db:"completed_at"`
}

// PayoutItem представляет одну позицию заявки, привязанную к сабмишену.
type PayoutItem struct {
	ID              uuid.UUID       `db:"id"`
	PayoutRequestID uuid.UUID       `db:"payout_request_id"`
	SubmissionID    uuid.UUID       `db:"submission_id"`
	SourceType      SourceType      `db:"source_type"`
	SourceID        uuid.UUID       `db:"source_id"`
	Amount          decimal.Decimal `db:"amount"`
	ViewsAtRequest  int64           `db:"views_at_request"`
	Status          ItemStatus      `db:"status"`
	FlaggedAt       *time.Time      `db:"flagged_at"`
	FlaggedBy       *uuid.UUID      `db:"flagged_by"`
	FlagReason      *string         `db:"flag_reason"`
	ApprovedAt      *time.Time      `db:"approved_at"`
	ApprovedBy      *uuid.UUID      `db:"approved_by"`
	ReviewStatus    *ReviewStatus   `db:"review_status"`
	ReviewReason    *string         `db:"review_reason"`
	ReviewedAt      *time.Time      `db:"reviewed_at"`
	ReviewedBy      *uuid.UUID      `db:"reviewed_by"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Flagged сообщает, была ли позиция зафлагана.
func (i *PayoutItem) Flagged() bool {
	return i.FlaggedAt != nil
}

// ClawedBack сообщает, изъята ли позиция модерацией. Изъятие - единственное
// терминальное решение: clear может быть пересмотрен после повторного флага.
func (i *PayoutItem) ClawedBack() bool {
	return i.ReviewStatus != nil && *i.ReviewStatus == ReviewStatusClawedBack
}

// Scope ограничивает действие одобрения подмножеством позиций заявки.
// Нулевое значение недопустимо: используйте ScopeAll или ScopeSource.
type Scope struct {
	all        bool
	sourceType SourceType
	sourceID   uuid.UUID
}

// ScopeAll - скоуп "вся заявка".
func ScopeAll() Scope {
	return Scope{all: true}
}

// ScopeSource - скоуп одной кампании или буста.
func ScopeSource(sourceType SourceType, sourceID uuid.UUID) Scope {
	return Scope{sourceType: sourceType, sourceID: sourceID}
}

// All сообщает, покрывает ли скоуп всю заявку.
func (s Scope) All() bool {
	return s.all
}

// Source возвращает источник скоупа; ok=false для ScopeAll.
func (s Scope) Source() (SourceType, uuid.UUID, bool) {
	if s.all {
		return "", uuid.Nil, false
	}
	return s.sourceType, s.sourceID, true
}

// Matches сообщает, попадает ли позиция в скоуп.
func (s Scope) Matches(item *PayoutItem) bool {
	if s.all {
		return true
	}
	return item.SourceType == s.sourceType && item.SourceID == s.sourceID
}

// String возвращает представление скоупа для логов и метаданных транзакций.
func (s Scope) String() string {
	if s.all {
		return "all"
	}
	return string(s.sourceType) + ":" + s.sourceID.String()
}

// ApprovePayoutRequest - DTO запроса на одобрение (скоуп опционален).
type ApprovePayoutRequest struct {
	SourceType *string    `json:"source_type,omitempty" validate:"omitempty,oneof=campaign boost"`
	SourceID   *uuid.UUID `json:"source_id,omitempty" validate:"required_with=SourceType"`
}

// ApprovePayoutResponse - DTO результата одобрения.
type ApprovePayoutResponse struct {
	CreditedAmount float64 `json:"credited_amount"`
	RequestStatus  string  `json:"request_status"`
}

// FlagItemRequest - DTO запроса на флаг позиции.
type FlagItemRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// FlagItemResponse - DTO результата флага.
type FlagItemResponse struct {
	FlaggedAt string `json:"flagged_at"`
}

// ClawbackRequest - DTO запроса на clawback зафлаганной позиции.
type ClawbackRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// PayoutItemResponse - DTO позиции для ответа API.
type PayoutItemResponse struct {
	ID             uuid.UUID `json:"id"`
	SubmissionID   uuid.UUID `json:"submission_id"`
	SourceType     string    `json:"source_type"`
	SourceID       uuid.UUID `json:"source_id"`
	Amount         float64   `json:"amount"`
	ViewsAtRequest int64     `json:"views_at_request"`
	Status         string    `json:"status"`
	Flagged        bool      `json:"flagged"`
	FlagReason     *string   `json:"flag_reason,omitempty"`
}

// PayoutRequestResponse - DTO заявки со спроецированным статусом.
type PayoutRequestResponse struct {
	ID               uuid.UUID             `json:"id"`
	CreatorID        uuid.UUID             `json:"creator_id"`
	TotalAmount      float64               `json:"total_amount"`
	Status           string                `json:"status"`
	ProgressFraction float64               `json:"progress_fraction"`
	CreatedAt        string                `json:"created_at"`
	ClearingEndsAt   string                `json:"clearing_ends_at"`
	CompletedAt      *string               `json:"completed_at,omitempty"`
	Items            []*PayoutItemResponse `json:"items"`
}
