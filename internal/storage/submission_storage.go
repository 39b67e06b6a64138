package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionConflict = errors.New("submission is no longer available for payout")
)

const submissionColumns = `id, creator_id, source_type, source_id, views, paid_views,
	pending_earnings, payout_status, created_at, updated_at`

// PostgresSubmissionStorage реализует доступ к учётной части сабмишенов.
// Ядро выплат никогда не уменьшает просмотры и не пересчитывает заработок.
type PostgresSubmissionStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresSubmissionStorage создаёт новый экземпляр.
func NewPostgresSubmissionStorage(pool *pgxpool.Pool) *PostgresSubmissionStorage {
	return &PostgresSubmissionStorage{pool: pool}
}

// GetByID возвращает сабмишен по идентификатору.
func (s *PostgresSubmissionStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	sub, err := scanSubmission(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}
	return sub, nil
}

// GetAvailableByCreatorID возвращает сабмишены, готовые к включению в
// заявку: available и с положительным накопленным заработком.
func (s *PostgresSubmissionStorage) GetAvailableByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE creator_id = $1 AND payout_status = 'available' AND pending_earnings > 0
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query available submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		sub := &models.Submission{}
		err := rows.Scan(
			&sub.ID, &sub.CreatorID, &sub.SourceType, &sub.SourceID,
			&sub.Views, &sub.PaidViews, &sub.PendingEarnings, &sub.PayoutStatus,
			&sub.CreatedAt, &sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return subs, nil
}

// LockForPayoutWithTx переводит сабмишены в locked при подаче заявки.
// Расхождение в числе строк означает, что сабмишен ушёл из available
// между снимком и блокировкой: подача откатывается и может быть повторена.
func (s *PostgresSubmissionStorage) LockForPayoutWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	query := `
		UPDATE submissions
		SET payout_status = 'locked', updated_at = NOW()
		WHERE id = ANY($1) AND payout_status = 'available'
	`

	result, err := tx.Exec(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to lock submissions: %w", err)
	}
	if result.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("locked %d of %d submissions: %w", result.RowsAffected(), len(ids), ErrSubmissionConflict)
	}
	return nil
}

// RolloverWithTx прокатывает учёт сабмишена после одобрения позиции:
// paid_views увеличивается на снимок, payout_status возвращается в
// available. Это сознательно не терминальный "paid": сабмишен снова
// копит неоплаченные просмотры и может попасть в следующую заявку.
// Выполняется ровно один раз на позицию, под успешным переходом
// pending -> approved в той же транзакции.
func (s *PostgresSubmissionStorage) RolloverWithTx(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID, views int64) error {
	query := `
		UPDATE submissions
		SET paid_views = paid_views + $1, payout_status = 'available', updated_at = NOW()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, views, submissionID)
	if err != nil {
		return fmt.Errorf("failed to rollover submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// ReleaseWithTx возвращает сабмишен из locked в available без учёта
// просмотров. Используется при clawback: заработок изъят, но сабмишен
// не должен навсегда остаться заблокированным.
func (s *PostgresSubmissionStorage) ReleaseWithTx(ctx context.Context, tx pgx.Tx, submissionID uuid.UUID) error {
	query := `
		UPDATE submissions
		SET payout_status = 'available', updated_at = NOW()
		WHERE id = $1 AND payout_status = 'locked'
	`

	if _, err := tx.Exec(ctx, query, submissionID); err != nil {
		return fmt.Errorf("failed to release submission: %w", err)
	}
	return nil
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	sub := &models.Submission{}
	err := row.Scan(
		&sub.ID, &sub.CreatorID, &sub.SourceType, &sub.SourceID,
		&sub.Views, &sub.PaidViews, &sub.PendingEarnings, &sub.PayoutStatus,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
