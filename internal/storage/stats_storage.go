package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStatsStorage хранит аналитический агрегат "кампания + криейтор".
type PostgresStatsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStatsStorage создаёт новый экземпляр.
func NewPostgresStatsStorage(pool *pgxpool.Pool) *PostgresStatsStorage {
	return &PostgresStatsStorage{pool: pool}
}

// RecordPayment прокатывает агрегат после расчёта по кампании: добавляет
// оплаченные просмотры и запоминает последнюю выплату. Вызывается после
// коммита расчётной транзакции, ошибки не фатальны для выплаты.
func (s *PostgresStatsStorage) RecordPayment(ctx context.Context, campaignID, creatorID uuid.UUID, views int64, amount decimal.Decimal, paidAt time.Time) error {
	query := `
		INSERT INTO campaign_account_stats (campaign_id, creator_id, paid_views, last_payment_amount, last_payment_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (campaign_id, creator_id) DO UPDATE
		SET paid_views = campaign_account_stats.paid_views + EXCLUDED.paid_views,
		    last_payment_amount = EXCLUDED.last_payment_amount,
		    last_payment_at = EXCLUDED.last_payment_at
	`

	if _, err := s.pool.Exec(ctx, query, campaignID, creatorID, views, amount, paidAt); err != nil {
		return fmt.Errorf("failed to record campaign payment: %w", err)
	}
	return nil
}

// GetByCampaignAndCreator возвращает агрегат или nil, если выплат не было.
func (s *PostgresStatsStorage) GetByCampaignAndCreator(ctx context.Context, campaignID, creatorID uuid.UUID) (*models.CampaignAccountStats, error) {
	query := `
		SELECT campaign_id, creator_id, paid_views, last_payment_amount, last_payment_at
		FROM campaign_account_stats
		WHERE campaign_id = $1 AND creator_id = $2
	`

	st := &models.CampaignAccountStats{}
	err := s.pool.QueryRow(ctx, query, campaignID, creatorID).Scan(
		&st.CampaignID, &st.CreatorID, &st.PaidViews, &st.LastPaymentAmount, &st.LastPaymentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign stats: %w", err)
	}
	return st, nil
}
