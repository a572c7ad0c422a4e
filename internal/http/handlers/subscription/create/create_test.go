package create

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subtrack/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subtrack/internal/models"
	"github.com/magabrotheeeer/subtrack/internal/services/subscription"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userID string, req models.DummySubscription) (*models.Subscription, error) {
	args := m.Called(ctx, userID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCreateHandler(t *testing.T) {
	valid := `{"name":"Netflix","price":15.49,"billing_cycle":"monthly","category":"entertainment","next_billing_date":"2024-06-03"}`

	tests := []struct {
		name           string
		body           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "успешное создание подписки",
			body:   valid,
			userID: "u-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u-1", mock.MatchedBy(func(req models.DummySubscription) bool {
					return req.Name == "Netflix" && req.Price == 15.49
				})).Return(&models.Subscription{ID: "s-1", Name: "Netflix", Currency: "USD"}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":"s-1"`,
		},
		{
			name:           "пользователь не в контексте",
			body:           valid,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"name":`,
			userID:         "u-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "ошибка валидации",
			body:           `{"price":-5,"billing_cycle":"monthly","next_billing_date":"2024-06-03"}`,
			userID:         "u-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Name is a required field",
		},
		{
			name:   "некорректная дата",
			body:   `{"name":"Netflix","price":1,"billing_cycle":"monthly","next_billing_date":"June 3"}`,
			userID: "u-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u-1", mock.Anything).
					Return(nil, fmt.Errorf("subscription.Create: %w", subscription.ErrInvalidInput)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "next_billing_date must be in format 2006-01-02",
		},
		{
			name:   "ошибка сервиса",
			body:   valid,
			userID: "u-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u-1", mock.Anything).Return(nil, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not create subscription"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", strings.NewReader(tt.body))
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
