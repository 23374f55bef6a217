package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/service"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/pagination"
)

type mockReviewService struct {
	mock.Mock
}

func (m *mockReviewService) List(ctx context.Context, filter repository.ReviewFilter, page pagination.Params) ([]domain.Review, bool, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Bool(1), args.Error(2)
}

func (m *mockReviewService) Approve(ctx context.Context, id int64) (*domain.Review, *domain.ReviewStatistics, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Review), args.Get(1).(*domain.ReviewStatistics), args.Error(2)
}

func (m *mockReviewService) Channels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockReviewService) ForListing(ctx context.Context, listingID int64, publishedOnly bool) ([]domain.Review, error) {
	args := m.Called(ctx, listingID, publishedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

type mockListingService struct {
	mock.Mock
}

func (m *mockListingService) List(ctx context.Context, match string) ([]domain.ListingSummary, error) {
	args := m.Called(ctx, match)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingSummary), args.Error(1)
}

func (m *mockListingService) Get(ctx context.Context, id int64) (*service.ListingDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListingDetail), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

type mockSyncRunner struct {
	mock.Mock
}

func (m *mockSyncRunner) Run(ctx context.Context) (*service.SyncReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncReport), args.Error(1)
}

// serve routes the request through a bare chi router so URL params resolve.
func serve(method, target string, body string, register func(r chi.Router)) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	register(r)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
