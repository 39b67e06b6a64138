package handlers

import (
	"errors"
	"net/http"

	"github.com/clipmarket/payouts/internal/auth"
	"github.com/clipmarket/payouts/internal/models"
	"github.com/clipmarket/payouts/internal/services"
	"github.com/clipmarket/payouts/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ReviewHandler обрабатывает решения модерации по зафлаганным позициям.
type ReviewHandler struct {
	reviewService services.ReviewService
}

// NewReviewHandler создаёт новый handler.
func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ClearFlag обрабатывает POST /api/payout-items/:id/clear-flag.
func (h *ReviewHandler) ClearFlag(c echo.Context) error {
	reviewerID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var req models.ClawbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reason")
	}

	if err := h.reviewService.ClearFlag(c.Request().Context(), itemID, reviewerID, req.Reason); err != nil {
		return mapReviewError(err)
	}
	return c.NoContent(http.StatusOK)
}

// Clawback обрабатывает POST /api/payout-items/:id/clawback.
func (h *ReviewHandler) Clawback(c echo.Context) error {
	reviewerID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var req models.ClawbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reason")
	}

	if err := h.reviewService.Clawback(c.Request().Context(), itemID, reviewerID, req.Reason); err != nil {
		return mapReviewError(err)
	}
	return c.NoContent(http.StatusOK)
}

func mapReviewError(err error) error {
	switch {
	case errors.Is(err, storage.ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "payout item not found")
	case errors.Is(err, services.ErrItemNotFlagged):
		return echo.NewHTTPError(http.StatusConflict, "payout item is not flagged")
	case errors.Is(err, services.ErrAlreadyReviewed):
		return echo.NewHTTPError(http.StatusConflict, "payout item already clawed back")
	case errors.Is(err, services.ErrConcurrencyConflict):
		return echo.NewHTTPError(http.StatusConflict, "concurrent update, re-check item state")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
