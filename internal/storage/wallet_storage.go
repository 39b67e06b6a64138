package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
)

// PostgresWalletStorage реализует хранение кошельков и их журнала.
type PostgresWalletStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresWalletStorage создаёт новый экземпляр.
func NewPostgresWalletStorage(pool *pgxpool.Pool) *PostgresWalletStorage {
	return &PostgresWalletStorage{pool: pool}
}

// GetByCreatorID возвращает кошелёк криейтора.
func (s *PostgresWalletStorage) GetByCreatorID(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	query := `
		SELECT id, creator_id, balance, total_earned, created_at, updated_at
		FROM wallets
		WHERE creator_id = $1
	`

	w := &models.Wallet{}
	err := s.pool.QueryRow(ctx, query, creatorID).Scan(
		&w.ID, &w.CreatorID, &w.Balance, &w.TotalEarned, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// CreditWithTx увеличивает баланс и total_earned одним атомарным
// инкрементом. Чтение-модификация-запись здесь недопустимы: конкурирующие
// одобрения по разным скоупам одного криейтора не должны терять инкремент.
func (s *PostgresWalletStorage) CreditWithTx(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = balance + $1, total_earned = total_earned + $1, updated_at = NOW()
		WHERE creator_id = $2
	`

	result, err := tx.Exec(ctx, query, amount, creatorID)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// DebitWithTx уменьшает баланс при clawback. total_earned не трогаем:
// заработок был, изъятие - отдельная запись журнала.
func (s *PostgresWalletStorage) DebitWithTx(ctx context.Context, tx pgx.Tx, creatorID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = balance - $1, updated_at = NOW()
		WHERE creator_id = $2
	`

	result, err := tx.Exec(ctx, query, amount, creatorID)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// CreateTransactionWithTx добавляет запись в append-only журнал кошелька.
func (s *PostgresWalletStorage) CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, txn *models.WalletTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	meta, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO wallet_transactions (id, creator_id, amount, type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	err = tx.QueryRow(ctx, query,
		txn.ID, txn.CreatorID, txn.Amount, txn.Type, txn.Description, meta,
	).Scan(&txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet transaction: %w", err)
	}
	return nil
}

// GetTransactionsByRequestID возвращает записи журнала, ссылающиеся на
// заявку. Используется для сверки "почему изменился баланс".
func (s *PostgresWalletStorage) GetTransactionsByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, creator_id, amount, type, description, metadata, created_at
		FROM wallet_transactions
		WHERE metadata->>'payout_request_id' = $1
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, requestID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetTransactionsByCreatorID возвращает журнал криейтора (новые первыми).
func (s *PostgresWalletStorage) GetTransactionsByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, creator_id, amount, type, description, metadata, created_at
		FROM wallet_transactions
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*models.WalletTransaction, error) {
	var txns []*models.WalletTransaction
	for rows.Next() {
		txn := &models.WalletTransaction{}
		var meta []byte
		err := rows.Scan(&txn.ID, &txn.CreatorID, &txn.Amount, &txn.Type, &txn.Description, &meta, &txn.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		if err := json.Unmarshal(meta, &txn.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
		txns = append(txns, txn)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return txns, nil
}
