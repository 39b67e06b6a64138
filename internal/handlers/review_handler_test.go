package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clipmarket/payouts/internal/auth"
	"github.com/clipmarket/payouts/internal/services"
	"github.com/clipmarket/payouts/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type mockReviewService struct {
	ClearFlagFunc func(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error
	ClawbackFunc  func(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error
}

func (m *mockReviewService) ClearFlag(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error {
	if m.ClearFlagFunc != nil {
		return m.ClearFlagFunc(ctx, itemID, reviewedBy, reason)
	}
	return nil
}

func (m *mockReviewService) Clawback(ctx context.Context, itemID, reviewedBy uuid.UUID, reason string) error {
	if m.ClawbackFunc != nil {
		return m.ClawbackFunc(ctx, itemID, reviewedBy, reason)
	}
	return nil
}

func TestReviewHandler_ClearFlag(t *testing.T) {
	reviewerID := uuid.New()
	itemID := uuid.New()

	tests := []struct {
		name           string
		paramID        string
		body           string
		mockService    *mockReviewService
		expectedStatus int
	}{
		{
			name:    "clears flag",
			paramID: itemID.String(),
			body:    `{"reason":"looks legitimate"}`,
			mockService: &mockReviewService{
				ClearFlagFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					if by != reviewerID {
						t.Errorf("reviewedBy = %v, want %v", by, reviewerID)
					}
					return nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid item id",
			paramID:        "not-a-uuid",
			body:           `{}`,
			mockService:    &mockReviewService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "item not found",
			paramID: itemID.String(),
			body:    `{}`,
			mockService: &mockReviewService{
				ClearFlagFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					return storage.ErrItemNotFound
				},
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:    "not flagged",
			paramID: itemID.String(),
			body:    `{}`,
			mockService: &mockReviewService{
				ClearFlagFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					return services.ErrItemNotFlagged
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "already clawed back",
			paramID: itemID.String(),
			body:    `{}`,
			mockService: &mockReviewService{
				ClearFlagFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					return services.ErrAlreadyReviewed
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "internal error",
			paramID: itemID.String(),
			body:    `{}`,
			mockService: &mockReviewService{
				ClearFlagFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					return errors.New("db error")
				},
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			req := httptest.NewRequest(http.MethodPost, "/api/payout-items/"+tt.paramID+"/clear-flag", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.paramID)
			c.Set(string(auth.UserIDKey), reviewerID)

			handler := NewReviewHandler(tt.mockService)
			err := handler.ClearFlag(c)

			if tt.expectedStatus < 400 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if rec.Code != tt.expectedStatus {
					t.Fatalf("status = %d, want %d", rec.Code, tt.expectedStatus)
				}
			} else {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if he, ok := err.(*echo.HTTPError); ok {
					if he.Code != tt.expectedStatus {
						t.Fatalf("status = %d, want %d", he.Code, tt.expectedStatus)
					}
				}
			}
		})
	}
}

func TestReviewHandler_Clawback(t *testing.T) {
	reviewerID := uuid.New()
	itemID := uuid.New()

	tests := []struct {
		name           string
		mockService    *mockReviewService
		expectedStatus int
	}{
		{
			name: "claws back item",
			mockService: &mockReviewService{
				ClawbackFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					return nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "already clawed back",
			mockService: &mockReviewService{
				ClawbackFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					return services.ErrAlreadyReviewed
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "lost race",
			mockService: &mockReviewService{
				ClawbackFunc: func(ctx context.Context, id, by uuid.UUID, reason string) error {
					return services.ErrConcurrencyConflict
				},
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			req := httptest.NewRequest(http.MethodPost, "/api/payout-items/"+itemID.String()+"/clawback", strings.NewReader(`{"reason":"content violation"}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(itemID.String())
			c.Set(string(auth.UserIDKey), reviewerID)

			handler := NewReviewHandler(tt.mockService)
			err := handler.Clawback(c)

			if tt.expectedStatus < 400 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if rec.Code != tt.expectedStatus {
					t.Fatalf("status = %d, want %d", rec.Code, tt.expectedStatus)
				}
			} else {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if he, ok := err.(*echo.HTTPError); ok {
					if he.Code != tt.expectedStatus {
						t.Fatalf("status = %d, want %d", he.Code, tt.expectedStatus)
					}
				}
			}
		})
	}
}
