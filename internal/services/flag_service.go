package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clipmarket/payouts/internal/clearing"
	"github.com/clipmarket/payouts/internal/metrics"
	"github.com/clipmarket/payouts/internal/models"
	"github.com/google/uuid"
)

var (
	ErrWindowExpired = errors.New("clearing window expired")
)

// DefaultFlagReason подставляется, когда оператор не указал причину.
// Отсутствие причины никогда не является поводом для отказа.
const DefaultFlagReason = "flagged for manual review"

// FlagService описывает операцию флага позиции на время клирингового окна.
type FlagService interface {
	FlagItem(ctx context.Context, itemID, flaggedBy uuid.UUID, reason string) (time.Time, error)
}

type FlagServiceImpl struct {
	payoutStorage PayoutStorage
	now           func() time.Time
}

// NewFlagService создаёт сервис флагов.
func NewFlagService(payoutStorage PayoutStorage) *FlagServiceImpl {
	return &FlagServiceImpl{
		payoutStorage: payoutStorage,
		now:           time.Now,
	}
}

// FlagItem выставляет флаг позиции. Окно проверяется на сервере в момент
// вызова: истечение окна - факт безопасности, клиентскому состоянию тут
// доверять нельзя. Флаг и одобрение одной позиции взаимно исключены,
// проигравший переход получает ошибку предусловия.
func (s *FlagServiceImpl) FlagItem(ctx context.Context, itemID, flaggedBy uuid.UUID, reason string) (time.Time, error) {
	item, err := s.payoutStorage.GetItemByID(ctx, itemID)
	if err != nil {
		return time.Time{}, err
	}
	if item.Flagged() {
		return time.Time{}, ErrItemFlagged
	}
	if item.Status == models.ItemStatusApproved {
		return time.Time{}, ErrItemApproved
	}

	req, err := s.payoutStorage.GetRequestByID(ctx, item.PayoutRequestID)
	if err != nil {
		return time.Time{}, err
	}

	now := s.now()
	if !clearing.CanFlag(req.CreatedAt, req.ClearingEndsAt, now) {
		return time.Time{}, ErrWindowExpired
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultFlagReason
	}

	ok, err := s.payoutStorage.FlagItem(ctx, itemID, flaggedBy, reason, now)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		// Переход проиграл гонку: перечитываем позицию, чтобы вернуть
		// точную причину отказа вместо общего конфликта.
		current, err := s.payoutStorage.GetItemByID(ctx, itemID)
		if err != nil {
			return time.Time{}, err
		}
		if current.Flagged() {
			return time.Time{}, ErrItemFlagged
		}
		if current.Status == models.ItemStatusApproved {
			return time.Time{}, ErrItemApproved
		}
		return time.Time{}, ErrConcurrencyConflict
	}

	metrics.ItemFlagsTotal.Inc()
	return now, nil
}
