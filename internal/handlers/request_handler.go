package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/clipmarket/payouts/internal/auth"
	"github.com/clipmarket/payouts/internal/models"
	"github.com/clipmarket/payouts/internal/services"
	"github.com/clipmarket/payouts/internal/storage"
	"github.com/labstack/echo/v4"
)

// RequestHandler обрабатывает криейторские операции: подачу заявки,
// список заявок и чтение кошелька.
type RequestHandler struct {
	requestService services.RequestService
	walletService  services.WalletService
}

// NewRequestHandler создаёт новый handler.
func NewRequestHandler(requestService services.RequestService, walletService services.WalletService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		walletService:  walletService,
	}
}

// CreateRequest обрабатывает POST /api/payouts.
func (h *RequestHandler) CreateRequest(c echo.Context) error {
	creatorID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	req, err := h.requestService.CreateRequest(c.Request().Context(), creatorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNothingToPayout):
			return echo.NewHTTPError(http.StatusConflict, "no earnings available for payout")
		case errors.Is(err, services.ErrBelowMinimum):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "payout amount below minimum")
		case errors.Is(err, services.ErrConcurrencyConflict):
			return echo.NewHTTPError(http.StatusConflict, "submissions changed during filing, retry the request")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	total, _ := req.TotalAmount.Float64()
	return c.JSON(http.StatusAccepted, &models.PayoutRequestResponse{
		ID:             req.ID,
		CreatorID:      req.CreatorID,
		TotalAmount:    total,
		Status:         string(req.Status),
		CreatedAt:      req.CreatedAt.Format(time.RFC3339),
		ClearingEndsAt: req.ClearingEndsAt.Format(time.RFC3339),
		Items:          []*models.PayoutItemResponse{},
	})
}

// GetRequests обрабатывает GET /api/payouts.
func (h *RequestHandler) GetRequests(c echo.Context) error {
	creatorID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	requests, err := h.requestService.GetCreatorRequests(c.Request().Context(), creatorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	if len(requests) == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	now := time.Now()
	response := make([]*models.PayoutRequestResponse, 0, len(requests))
	for _, rw := range requests {
		response = append(response, mapRequestToResponse(rw, now))
	}
	return c.JSON(http.StatusOK, response)
}

// GetBalance обрабатывает GET /api/wallet.
func (h *RequestHandler) GetBalance(c echo.Context) error {
	creatorID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	wallet, err := h.walletService.GetBalance(c.Request().Context(), creatorID)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "wallet not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	balance, _ := wallet.Balance.Float64()
	totalEarned, _ := wallet.TotalEarned.Float64()
	return c.JSON(http.StatusOK, &models.BalanceResponse{
		Balance:     balance,
		TotalEarned: totalEarned,
	})
}

// GetTransactions обрабатывает GET /api/wallet/transactions.
func (h *RequestHandler) GetTransactions(c echo.Context) error {
	creatorID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	txns, err := h.walletService.GetHistory(c.Request().Context(), creatorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	if len(txns) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, mapTransactionsToResponse(txns))
}

// mapTransactionsToResponse преобразует записи журнала в DTO.
func mapTransactionsToResponse(txns []*models.WalletTransaction) []*models.WalletTransactionResponse {
	response := make([]*models.WalletTransactionResponse, 0, len(txns))
	for _, txn := range txns {
		amount, _ := txn.Amount.Float64()
		response = append(response, &models.WalletTransactionResponse{
			ID:              txn.ID,
			Amount:          amount,
			Type:            string(txn.Type),
			Description:     txn.Description,
			PayoutRequestID: txn.Metadata.PayoutRequestID,
			Scope:           txn.Metadata.Scope,
			ItemIDs:         txn.Metadata.ItemIDs,
			CreatedAt:       txn.CreatedAt.Format(time.RFC3339),
		})
	}
	return response
}
