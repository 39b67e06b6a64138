package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/clipmarket/payouts/internal/auth"
	"github.com/clipmarket/payouts/internal/clearing"
	"github.com/clipmarket/payouts/internal/models"
	"github.com/clipmarket/payouts/internal/services"
	"github.com/clipmarket/payouts/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PayoutHandler обрабатывает операторские действия над заявками:
// одобрение, флаг и чтение для экрана ревью.
type PayoutHandler struct {
	approvalService services.ApprovalService
	flagService     services.FlagService
	requestService  services.RequestService
	walletService   services.WalletService
}

// NewPayoutHandler создаёт новый handler.
func NewPayoutHandler(approvalService services.ApprovalService, flagService services.FlagService, requestService services.RequestService, walletService services.WalletService) *PayoutHandler {
	return &PayoutHandler{
		approvalService: approvalService,
		flagService:     flagService,
		requestService:  requestService,
		walletService:   walletService,
	}
}

// Approve обрабатывает POST /api/payouts/:id/approve.
func (h *PayoutHandler) Approve(c echo.Context) error {
	operatorID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	var req models.ApprovePayoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scope")
	}

	// Скоуп задаётся только парой полей: source_id без source_type не
	// должен молча превращаться в одобрение всей заявки.
	scope := models.ScopeAll()
	switch {
	case req.SourceType != nil && req.SourceID != nil:
		scope = models.ScopeSource(models.SourceType(*req.SourceType), *req.SourceID)
	case req.SourceType != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "source_id is required with source_type")
	case req.SourceID != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "source_type is required with source_id")
	}

	result, err := h.approvalService.ApprovePayout(c.Request().Context(), requestID, scope, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrRequestNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "payout request not found")
		case errors.Is(err, services.ErrNothingToApprove):
			return echo.NewHTTPError(http.StatusConflict, "nothing to approve in scope")
		case errors.Is(err, services.ErrItemFlagged):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrItemApproved):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrRequestCancelled):
			return echo.NewHTTPError(http.StatusConflict, "payout request is cancelled")
		case errors.Is(err, storage.ErrWalletNotFound):
			return echo.NewHTTPError(http.StatusConflict, "creator wallet not found")
		case errors.Is(err, services.ErrConcurrencyConflict):
			return echo.NewHTTPError(http.StatusConflict, "concurrent update, retry the approval")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	credited, _ := result.CreditedAmount.Float64()
	return c.JSON(http.StatusOK, &models.ApprovePayoutResponse{
		CreditedAmount: credited,
		RequestStatus:  string(result.RequestStatus),
	})
}

// Flag обрабатывает POST /api/payout-items/:id/flag.
func (h *PayoutHandler) Flag(c echo.Context) error {
	operatorID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var req models.FlagItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid flag reason")
	}

	flaggedAt, err := h.flagService.FlagItem(c.Request().Context(), itemID, operatorID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrItemNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "payout item not found")
		case errors.Is(err, services.ErrItemFlagged):
			return echo.NewHTTPError(http.StatusConflict, "payout item already flagged")
		case errors.Is(err, services.ErrItemApproved):
			return echo.NewHTTPError(http.StatusConflict, "payout item already approved")
		case errors.Is(err, services.ErrWindowExpired):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "clearing window expired")
		case errors.Is(err, services.ErrConcurrencyConflict):
			return echo.NewHTTPError(http.StatusConflict, "concurrent update, re-check item state")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusOK, &models.FlagItemResponse{
		FlaggedAt: flaggedAt.Format(time.RFC3339),
	})
}

// GetRequest обрабатывает GET /api/payouts/:id.
func (h *PayoutHandler) GetRequest(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	rw, err := h.requestService.GetRequest(c.Request().Context(), requestID)
	if err != nil {
		if errors.Is(err, storage.ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "payout request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, mapRequestToResponse(rw, time.Now()))
}

// GetRequestTransactions обрабатывает GET /api/payouts/:id/transactions.
func (h *PayoutHandler) GetRequestTransactions(c echo.Context) error {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	txns, err := h.walletService.GetRequestTransactions(c.Request().Context(), requestID)
	if err != nil {
		if errors.Is(err, storage.ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "payout request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, mapTransactionsToResponse(txns))
}

// mapRequestToResponse преобразует заявку и позиции в DTO со
// спроецированным статусом.
func mapRequestToResponse(rw *services.RequestWithItems, now time.Time) *models.PayoutRequestResponse {
	req := rw.Request
	projection := clearing.Project(req, rw.Items, now)
	total, _ := req.TotalAmount.Float64()

	resp := &models.PayoutRequestResponse{
		ID:               req.ID,
		CreatorID:        req.CreatorID,
		TotalAmount:      total,
		Status:           string(projection.Status),
		ProgressFraction: projection.ProgressFraction,
		CreatedAt:        req.CreatedAt.Format(time.RFC3339),
		ClearingEndsAt:   req.ClearingEndsAt.Format(time.RFC3339),
		Items:            make([]*models.PayoutItemResponse, 0, len(rw.Items)),
	}
	if req.CompletedAt != nil {
		completedAt := req.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completedAt
	}

	for _, it := range rw.Items {
		amount, _ := it.Amount.Float64()
		resp.Items = append(resp.Items, &models.PayoutItemResponse{
			ID:             it.ID,
			SubmissionID:   it.SubmissionID,
			SourceType:     string(it.SourceType),
			SourceID:       it.SourceID,
			Amount:         amount,
			ViewsAtRequest: it.ViewsAtRequest,
			Status:         string(it.Status),
			Flagged:        it.Flagged(),
			FlagReason:     it.FlagReason,
		})
	}
	return resp
}
