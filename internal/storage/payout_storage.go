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
)

var (
	ErrRequestNotFound = errors.New("payout request not found")
	ErrItemNotFound    = errors.New("payout item not found")
)

// PostgresPayoutStorage реализует хранение заявок на выплату и их позиций.
type PostgresPayoutStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresPayoutStorage создаёт новый экземпляр.
func NewPostgresPayoutStorage(pool *pgxpool.Pool) *PostgresPayoutStorage {
	return &PostgresPayoutStorage{pool: pool}
}

const requestColumns = `id, creator_id, total_amount, status, created_at, clearing_ends_at, completed_at`

const itemColumns = `id, payout_request_id, submission_id, source_type, source_id, amount,
	views_at_request, status, flagged_at, flagged_by, flag_reason,
	approved_at, approved_by, review_status, review_reason, reviewed_at, reviewed_by, created_at`

// CreateRequestWithTx создаёт заявку в рамках переданной транзакции.
func (s *PostgresPayoutStorage) CreateRequestWithTx(ctx context.Context, tx pgx.Tx, req *models.PayoutRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	query := `
		INSERT INTO payout_requests (id, creator_id, total_amount, status, created_at, clearing_ends_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		req.ID, req.CreatorID, req.TotalAmount, req.Status, req.CreatedAt, req.ClearingEndsAt)
	if err != nil {
		return fmt.Errorf("failed to create payout request: %w", err)
	}
	return nil
}

// CreateItemsWithTx создаёт позиции заявки одним батчем.
func (s *PostgresPayoutStorage) CreateItemsWithTx(ctx context.Context, tx pgx.Tx, items []*models.PayoutItem) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO payout_items (id, payout_request_id, submission_id, source_type, source_id, amount, views_at_request, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		batch.Queue(query,
			it.ID, it.PayoutRequestID, it.SubmissionID, it.SourceType, it.SourceID,
			it.Amount, it.ViewsAtRequest, it.Status, it.CreatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to create payout item: %w", err)
		}
	}
	return nil
}

// GetRequestByID возвращает заявку по идентификатору.
func (s *PostgresPayoutStorage) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM payout_requests WHERE id = $1`
	return scanRequest(s.pool.QueryRow(ctx, query, id))
}

// GetRequestForUpdateTx читает заявку с блокировкой строки. Блокировка
// сериализует конкурирующие одобрения одной заявки, поэтому проверка
// завершённости в шаге одобрения видит согласованный снимок позиций.
func (s *PostgresPayoutStorage) GetRequestForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.PayoutRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM payout_requests WHERE id = $1 FOR UPDATE`
	return scanRequest(tx.QueryRow(ctx, query, id))
}

// GetRequestsByCreatorID возвращает заявки криейтора (новые первыми).
func (s *PostgresPayoutStorage) GetRequestsByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.PayoutRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM payout_requests WHERE creator_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payout requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// GetItemByID возвращает позицию по идентификатору.
func (s *PostgresPayoutStorage) GetItemByID(ctx context.Context, id uuid.UUID) (*models.PayoutItem, error) {
	query := `SELECT ` + itemColumns + ` FROM payout_items WHERE id = $1`
	return scanItem(s.pool.QueryRow(ctx, query, id))
}

// GetItemsByRequestID возвращает позиции заявки.
func (s *PostgresPayoutStorage) GetItemsByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.PayoutItem, error) {
	return s.getItemsByRequestID(ctx, s.pool, requestID)
}

// GetItemsByRequestIDTx - то же в рамках транзакции.
func (s *PostgresPayoutStorage) GetItemsByRequestIDTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) ([]*models.PayoutItem, error) {
	return s.getItemsByRequestID(ctx, tx, requestID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PostgresPayoutStorage) getItemsByRequestID(ctx context.Context, q querier, requestID uuid.UUID) ([]*models.PayoutItem, error) {
	query := `SELECT ` + itemColumns + ` FROM payout_items WHERE payout_request_id = $1 ORDER BY created_at`

	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payout items: %w", err)
	}
	defer rows.Close()

	var items []*models.PayoutItem
	for rows.Next() {
		it, err := scanItemFromRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return items, nil
}

// FlagItem выставляет флаг позиции. Условие в WHERE гарантирует, что
// побеждает первый коммит: повторный флаг или флаг одобренной позиции
// не затрагивает строк.
func (s *PostgresPayoutStorage) FlagItem(ctx context.Context, itemID, flaggedBy uuid.UUID, reason string, now time.Time) (bool, error) {
	query := `
		UPDATE payout_items
		SET flagged_at = $1, flagged_by = $2, flag_reason = $3
		WHERE id = $4 AND flagged_at IS NULL AND status = 'pending'
	`

	result, err := s.pool.Exec(ctx, query, now, flaggedBy, reason, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to flag item: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ApproveItemsTx переводит позиции в approved и возвращает фактически
// обновлённые. Условия в WHERE повторяют проверки сервиса: одобряются
// только незафлаганные pending-позиции, флаг побеждает конкурирующее
// одобрение на уровне строки.
func (s *PostgresPayoutStorage) ApproveItemsTx(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID, approvedBy uuid.UUID, now time.Time) ([]*models.PayoutItem, error) {
	query := `
		UPDATE payout_items
		SET status = 'approved', approved_at = $1, approved_by = $2
		WHERE id = ANY($3) AND status = 'pending' AND flagged_at IS NULL
		RETURNING ` + itemColumns

	rows, err := tx.Query(ctx, query, now, approvedBy, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to approve items: %w", err)
	}
	defer rows.Close()

	var items []*models.PayoutItem
	for rows.Next() {
		it, err := scanItemFromRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return items, nil
}

// CompleteIfSettledTx помечает заявку completed, если не осталось
// неразрешённых позиций: каждая позиция либо одобрена, либо изъята
// модерацией. Возвращает true, если заявка была завершена этим вызовом.
func (s *PostgresPayoutStorage) CompleteIfSettledTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE payout_requests
		SET status = 'completed', completed_at = $1
		WHERE id = $2 AND status = 'clearing'
		  AND NOT EXISTS (
			SELECT 1 FROM payout_items
			WHERE payout_request_id = $2
			  AND status <> 'approved'
			  AND review_status IS DISTINCT FROM 'clawed_back'
		  )
	`

	result, err := tx.Exec(ctx, query, now, requestID)
	if err != nil {
		return false, fmt.Errorf("failed to complete request: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// GetSettledClearingRequestIDs возвращает заявки в clearing, у которых все
// позиции уже одобрены. Используется фоновой сверкой: модерация может
// убрать последнюю pending-позицию вне транзакции одобрения.
func (s *PostgresPayoutStorage) GetSettledClearingRequestIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT r.id FROM payout_requests r
		WHERE r.status = 'clearing'
		  AND EXISTS (SELECT 1 FROM payout_items i WHERE i.payout_request_id = r.id)
		  AND NOT EXISTS (
			SELECT 1 FROM payout_items i
			WHERE i.payout_request_id = r.id
			  AND i.status <> 'approved'
			  AND i.review_status IS DISTINCT FROM 'clawed_back'
		  )
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled requests: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan request id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return ids, nil
}

// CompleteIfSettled - вариант для фоновой сверки вне внешней транзакции.
func (s *PostgresPayoutStorage) CompleteIfSettled(ctx context.Context, requestID uuid.UUID, now time.Time) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	done, err := s.CompleteIfSettledTx(ctx, tx, requestID, now)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return done, nil
}

// ClearFlag снимает флаг с позиции отдельным модерационным путём и
// фиксирует решение. Позиция возвращается в pending и снова может быть
// одобрена. Зафлаганная повторно после clear позиция снова доступна
// модерации, терминально только изъятие: review-колонки хранят последнее
// решение.
func (s *PostgresPayoutStorage) ClearFlag(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error) {
	query := `
		UPDATE payout_items
		SET flagged_at = NULL, flagged_by = NULL, flag_reason = NULL,
		    review_status = 'cleared', review_reason = $1, reviewed_at = $2, reviewed_by = $3
		WHERE id = $4 AND flagged_at IS NOT NULL
		  AND review_status IS DISTINCT FROM 'clawed_back'
	`

	result, err := s.pool.Exec(ctx, query, reason, now, reviewedBy, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to clear flag: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ClawbackItemTx помечает позицию как изъятую: зафлаганную pending или
// уже одобренную. Решение терминально, позиция больше никогда не
// участвует в одобрении. Прежний clear не защищает от изъятия после
// повторного флага.
func (s *PostgresPayoutStorage) ClawbackItemTx(ctx context.Context, tx pgx.Tx, itemID, reviewedBy uuid.UUID, reason string, now time.Time) (bool, error) {
	query := `
		UPDATE payout_items
		SET review_status = 'clawed_back', review_reason = $1, reviewed_at = $2, reviewed_by = $3
		WHERE id = $4 AND review_status IS DISTINCT FROM 'clawed_back'
		  AND (flagged_at IS NOT NULL OR status = 'approved')
	`

	result, err := tx.Exec(ctx, query, reason, now, reviewedBy, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to clawback item: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func scanRequest(row pgx.Row) (*models.PayoutRequest, error) {
	req := &models.PayoutRequest{}
	err := row.Scan(
		&req.ID, &req.CreatorID, &req.TotalAmount, &req.Status,
		&req.CreatedAt, &req.ClearingEndsAt, &req.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan payout request: %w", err)
	}
	return req, nil
}

func collectRequests(rows pgx.Rows) ([]*models.PayoutRequest, error) {
	var requests []*models.PayoutRequest
	for rows.Next() {
		req := &models.PayoutRequest{}
		err := rows.Scan(
			&req.ID, &req.CreatorID, &req.TotalAmount, &req.Status,
			&req.CreatedAt, &req.ClearingEndsAt, &req.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout request: %w", err)
		}
		requests = append(requests, req)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return requests, nil
}

func scanItem(row pgx.Row) (*models.PayoutItem, error) {
	it := &models.PayoutItem{}
	err := row.Scan(
		&it.ID, &it.PayoutRequestID, &it.SubmissionID, &it.SourceType, &it.SourceID,
		&it.Amount, &it.ViewsAtRequest, &it.Status,
		&it.FlaggedAt, &it.FlaggedBy, &it.FlagReason,
		&it.ApprovedAt, &it.ApprovedBy,
		&it.ReviewStatus, &it.ReviewReason, &it.ReviewedAt, &it.ReviewedBy,
		&it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to scan payout item: %w", err)
	}
	return it, nil
}

func scanItemFromRows(rows pgx.Rows) (*models.PayoutItem, error) {
	it := &models.PayoutItem{}
	err := rows.Scan(
		&it.ID, &it.PayoutRequestID, &it.SubmissionID, &it.SourceType, &it.SourceID,
		&it.Amount, &it.ViewsAtRequest, &it.Status,
		&it.FlaggedAt, &it.FlaggedBy, &it.FlagReason,
		&it.ApprovedAt, &it.ApprovedBy,
		&it.ReviewStatus, &it.ReviewReason, &it.ReviewedAt, &it.ReviewedBy,
		&it.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan payout item: %w", err)
	}
	return it, nil
}
