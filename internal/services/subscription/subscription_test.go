package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/models"
	"github.com/magabrotheeeer/subtrack/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, userID, id string) (*models.Subscription, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) DeleteSubscription(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *RepoMock) ListSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_ResolveUser(t *testing.T) {
	ctx := context.Background()
	identity := models.Identity{ExternalID: "ext_1", Email: "ann@example.com", Name: "Ann"}
	user := &models.User{ID: "u-1", ExternalID: "ext_1", Email: "ann@example.com"}

	t.Run("existing user", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByExternalID", ctx, "ext_1").Return(user, nil).Once()

		got, err := New(repo, new(CacheMock), time.Minute, newNoopLogger()).ResolveUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, user, got)
		repo.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)
	})

	t.Run("missing user is created", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByExternalID", ctx, "ext_1").
			Return(nil, fmt.Errorf("storage.GetUserByExternalID: %w", repository.ErrNotFound)).Once()
		repo.On("UpsertUser", ctx, identity).Return(user, nil).Once()

		got, err := New(repo, new(CacheMock), time.Minute, newNoopLogger()).ResolveUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.ID)
		repo.AssertExpectations(t)
	})

	t.Run("storage error", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByExternalID", ctx, "ext_1").Return(nil, errors.New("db down")).Once()

		_, err := New(repo, new(CacheMock), time.Minute, newNoopLogger()).ResolveUser(ctx, identity)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		repo.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)
	})
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.DummySubscription
		want    models.Subscription
		wantErr error
	}{
		{
			name: "defaults currency and color",
			req: models.DummySubscription{
				Name:            "Netflix",
				Price:           15.49,
				BillingCycle:    "monthly",
				Category:        "entertainment",
				NextBillingDate: "2024-06-03",
			},
			want: models.Subscription{
				UserID:          "u-1",
				Name:            "Netflix",
				Price:           15.49,
				Currency:        "USD",
				BillingCycle:    billing.Monthly,
				Category:        "entertainment",
				NextBillingDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local),
				Color:           "#ef4444",
			},
		},
		{
			name: "normalizes currency and unknown category, keeps cycle as given",
			req: models.DummySubscription{
				Name:            " Gym ",
				Price:           20,
				Currency:        "eur",
				BillingCycle:    "Weekly",
				Category:        "fitness",
				NextBillingDate: "2024-06-10",
				Notes:           "downtown",
				Color:           "#123456",
			},
			want: models.Subscription{
				UserID:          "u-1",
				Name:            "Gym",
				Price:           20,
				Currency:        "EUR",
				BillingCycle:    billing.Cycle("Weekly"),
				Category:        models.CategoryOther,
				NextBillingDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local),
				Notes:           "downtown",
				Color:           "#123456",
			},
		},
		{
			name: "invalid date",
			req: models.DummySubscription{
				Name:            "Netflix",
				BillingCycle:    "monthly",
				NextBillingDate: "03-06-2024",
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			if tt.wantErr == nil {
				created := tt.want
				created.ID = "s-1"
				repo.On("CreateSubscription", ctx, tt.want).Return(&created, nil).Once()
				cache.On("Invalidate", ctx, "subscriptions:u-1").Return(nil).Once()
			}

			got, err := New(repo, cache, time.Minute, newNoopLogger()).Create(ctx, "u-1", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s-1", got.ID)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_Create_RepoError(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	cache := new(CacheMock)
	repo.On("CreateSubscription", ctx, mock.Anything).Return(nil, errors.New("insert failed")).Once()

	_, err := New(repo, cache, time.Minute, newNoopLogger()).Create(ctx, "u-1", models.DummySubscription{
		Name: "Netflix", BillingCycle: "monthly", NextBillingDate: "2024-06-03",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscription.Create")
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	req := models.DummySubscription{
		Name:            "Spotify",
		Price:           9.99,
		BillingCycle:    "monthly",
		Category:        "productivity",
		NextBillingDate: "2024-07-01",
	}

	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("UpdateSubscription", ctx, mock.MatchedBy(func(s models.Subscription) bool {
			return s.ID == "s-1" && s.UserID == "u-1" && s.Color == "#6366f1" && s.Currency == "USD"
		})).Return(&models.Subscription{ID: "s-1", Name: "Spotify"}, nil).Once()
		cache.On("Invalidate", ctx, "subscriptions:u-1").Return(nil).Once()

		got, err := New(repo, cache, time.Minute, newNoopLogger()).Update(ctx, "u-1", "s-1", req)
		require.NoError(t, err)
		assert.Equal(t, "Spotify", got.Name)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("UpdateSubscription", ctx, mock.Anything).Return(nil, repository.ErrNotFound).Once()

		_, err := New(repo, cache, time.Minute, newNoopLogger()).Update(ctx, "u-1", "s-1", req)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success, cache failure is not fatal", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("DeleteSubscription", ctx, "u-1", "s-1").Return(nil).Once()
		cache.On("Invalidate", ctx, "subscriptions:u-1").Return(errors.New("redis down")).Once()

		err := New(repo, cache, time.Minute, newNoopLogger()).Delete(ctx, "u-1", "s-1")
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("DeleteSubscription", ctx, "u-1", "s-1").Return(repository.ErrNotFound).Once()

		err := New(repo, cache, time.Minute, newNoopLogger()).Delete(ctx, "u-1", "s-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	repo.On("GetSubscription", ctx, "u-1", "s-1").Return(&models.Subscription{ID: "s-1"}, nil).Once()
	repo.On("GetSubscription", ctx, "u-1", "s-2").Return(nil, repository.ErrNotFound).Once()

	svc := New(repo, new(CacheMock), time.Minute, newNoopLogger())

	got, err := svc.Get(ctx, "u-1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.ID)

	_, err = svc.Get(ctx, "u-1", "s-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	subs := []models.Subscription{{ID: "s-1", Name: "Netflix"}, {ID: "s-2", Name: "Spotify"}}

	t.Run("cache hit", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", ctx, "subscriptions:u-1", mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*[]models.Subscription) = subs
			}).
			Return(true, nil).Once()

		got, err := New(repo, cache, time.Minute, newNoopLogger()).List(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, subs, got)
		repo.AssertNotCalled(t, "ListSubscriptions", mock.Anything, mock.Anything)
	})

	t.Run("cache miss fills cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", ctx, "subscriptions:u-1", mock.Anything).Return(false, nil).Once()
		repo.On("ListSubscriptions", ctx, "u-1").Return(subs, nil).Once()
		cache.On("Set", ctx, "subscriptions:u-1", subs, 5*time.Minute).Return(nil).Once()

		got, err := New(repo, cache, 5*time.Minute, newNoopLogger()).List(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, subs, got)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache error falls back to storage", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", ctx, "subscriptions:u-1", mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("ListSubscriptions", ctx, "u-1").Return(subs, nil).Once()
		cache.On("Set", ctx, "subscriptions:u-1", subs, time.Minute).Return(errors.New("redis down")).Once()

		got, err := New(repo, cache, time.Minute, newNoopLogger()).List(ctx, "u-1")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("storage error", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", ctx, "subscriptions:u-1", mock.Anything).Return(false, nil).Once()
		repo.On("ListSubscriptions", ctx, "u-1").Return(nil, errors.New("db down")).Once()

		_, err := New(repo, cache, time.Minute, newNoopLogger()).List(ctx, "u-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "subscription.List")
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
