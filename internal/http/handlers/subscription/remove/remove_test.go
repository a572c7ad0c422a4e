package remove

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subtrack/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subtrack/internal/storage/repository"
)

const subID = "0b8f2f5e-8c1a-4c3e-9a57-4d2f8b1e6a10"

type MockService struct {
	mock.Mock
}

func (m *MockService) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRemoveHandler(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное удаление",
			id:   subID,
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, "u-1", subID).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"success":true}}`,
		},
		{
			name:           "некорректный id",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "subscription not found",
		},
		{
			name: "подписка не найдена",
			id:   subID,
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, "u-1", subID).Return(repository.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "subscription not found",
		},
		{
			name: "ошибка сервиса",
			id:   subID,
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, "u-1", subID).Return(errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not remove subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodDelete, "/subscriptions/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserID, "u-1")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			New(newNoopLogger(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
