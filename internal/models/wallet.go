package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet представляет кошелёк криейтора.
type Wallet struct {
	ID          uuid.UUID       `db:"id"`
	CreatorID   uuid.UUID       `db:"creator_id"`
	Balance     decimal.Decimal `db:"balance"`
	TotalEarned decimal.Decimal `db:"total_earned"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// TransactionType описывает тип записи в журнале кошелька.
type TransactionType string

const (
	TransactionTypeEarning  TransactionType = "earning"
	TransactionTypeClawback TransactionType = "clawback"
)

// TransactionMetadata связывает запись журнала с заявкой, скоупом и позициями.
// Это единственный механизм ответа на вопрос "почему изменился баланс".
type TransactionMetadata struct {
	PayoutRequestID uuid.UUID   `json:"payout_request_id"`
	Scope           string      `json:"scope"`
	ApprovedBy      uuid.UUID   `json:"approved_by"`
	ItemIDs         []uuid.UUID `json:"item_ids"`
}

// WalletTransaction - запись append-only журнала кошелька.
type WalletTransaction struct {
	ID          uuid.UUID           `db:"id"`
	CreatorID   uuid.UUID           `db:"creator_id"`
	Amount      decimal.Decimal     `db:"amount"`
	Type        TransactionType     `db:"type"`
	Description string              `db:"description"`
	Metadata    TransactionMetadata `db:"metadata"`
	CreatedAt   time.Time           `db:"created_at"`
}

// BalanceResponse - DTO баланса кошелька.
type BalanceResponse struct {
	Balance     float64 `json:"balance"`
	TotalEarned float64 `json:"total_earned"`
}

// WalletTransactionResponse - DTO записи журнала кошелька.
type WalletTransactionResponse struct {
	ID              uuid.UUID   `json:"id"`
	Amount          float64     `json:"amount"`
	Type            string      `json:"type"`
	Description     string      `json:"description"`
	PayoutRequestID uuid.UUID   `json:"payout_request_id"`
	Scope           string      `json:"scope"`
	ItemIDs         []uuid.UUID `json:"item_ids"`
	CreatedAt       string      `json:"created_at"`
}
