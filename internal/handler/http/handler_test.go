package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/event"
	"github.com/shoplane/review-service/internal/identity"
	"github.com/shoplane/review-service/internal/repository"
	"github.com/shoplane/review-service/internal/service"
	apperrors "github.com/shoplane/review-service/pkg/errors"
	"github.com/shoplane/review-service/pkg/health"
	"github.com/shoplane/review-service/pkg/httputil"
	pkgkafka "github.com/shoplane/review-service/pkg/kafka"
	"github.com/shoplane/review-service/pkg/middleware"
)

// =============================================================================
// Mock ReviewRepository
// =============================================================================

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) Update(ctx context.Context, id string, patch repository.ReviewPatch) (*domain.Review, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepo) CountByRating(ctx context.Context) ([]domain.RatingBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RatingBucket), args.Error(1)
}

// staticResolver returns a fixed identity for every user ID.
type staticResolver struct{}

func (staticResolver) ResolveBatch(_ context.Context, cache identity.Cache, userIDs []string) map[string]identity.Identity {
	out := make(map[string]identity.Identity, len(userIDs))
	for _, id := range userIDs {
		out[id] = identity.Identity{DisplayName: "User " + id}
	}
	return out
}

// =============================================================================
// Test helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// stubValidator accepts tokens of the form "user:<id>" and "admin:<id>".
func stubValidator(token string) (*middleware.Claims, error) {
	switch {
	case len(token) > 5 && token[:5] == "user:":
		return &middleware.Claims{UserID: token[5:], Role: "customer"}, nil
	case len(token) > 6 && token[:6] == "admin:":
		return &middleware.Claims{UserID: token[6:], Role: "admin"}, nil
	default:
		return nil, fmt.Errorf("invalid token")
	}
}

func testRouter(repo *mockReviewRepo) http.Handler {
	logger := testLogger()
	producer := testEventProducer()
	submissions := service.NewSubmissionService(repo, producer, service.OwnerOnly, logger)
	moderation := service.NewModerationService(repo, producer, service.AdminOnly, logger)
	feed := service.NewFeedService(repo, staticResolver{}, logger)
	return NewRouter(submissions, moderation, feed, stubValidator, health.NewHandler(), logger)
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func approvedReview() *domain.Review {
	return &domain.Review{
		ID:         "review-1",
		OwnerID:    "user-1",
		Rating:     5,
		Title:      "Great service",
		Comment:    "Would order again.",
		IsApproved: true,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
}

// =============================================================================
// Public endpoints
// =============================================================================

func TestListReviews_Public(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Status == domain.StatusApproved && f.PinnedFirst
	})).Return([]domain.Review{*approvedReview()}, 1, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	repo.AssertExpectations(t)
}

func TestListReviews_InvalidSort(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews?sort=bogus", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStats_Public(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("CountByRating", mock.Anything).Return([]domain.RatingBucket{
		{Rating: 5, Approved: true, Count: 2},
	}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews/stats", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// Authenticated endpoints
// =============================================================================

func TestSubmitReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/reviews", "user:user-1", SubmitReviewRequest{
		Rating:  5,
		Title:   "Great service",
		Comment: "Would order again.",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
}

func TestSubmitReview_EmptyCommentRejected(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/reviews", "user:user-1", SubmitReviewRequest{
		Rating: 5,
		Title:  "Great service",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_Unauthenticated(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/reviews", "", SubmitReviewRequest{
		Rating: 5,
		Title:  "Great service",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_ValidationFailure(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/reviews", "user:user-1", SubmitReviewRequest{
		Rating: 7,
		Title:  "Too many stars",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListOwnReviews(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.OwnerID != nil && *f.OwnerID == "user-1"
	})).Return([]domain.Review{*approvedReview()}, 1, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews/mine", "user:user-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAmendReview_Forbidden(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("GetByID", mock.Anything, "review-1").Return(approvedReview(), nil)

	rating := 1
	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/review-1", "user:intruder", AmendReviewRequest{
		Rating: &rating,
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAmendReview_AdminTokenForbidden(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("GetByID", mock.Anything, "review-1").Return(approvedReview(), nil)

	rating := 1
	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/review-1", "admin:admin-1", AmendReviewRequest{
		Rating: &rating,
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("GetByID", mock.Anything, "review-1").Return(approvedReview(), nil)
	repo.On("Delete", mock.Anything, "review-1").Return(nil)

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/reviews/review-1", "user:user-1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWithdrawReview_NotFound(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("GetByID", mock.Anything, "missing").
		Return(nil, apperrors.NotFound("review", "missing"))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/reviews/missing", "user:user-1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Admin endpoints
// =============================================================================

func TestAdminList_RequiresAdminRole(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/admin/reviews", "user:user-1", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminList_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Status == domain.StatusPending && !f.PinnedFirst
	})).Return([]domain.Review{*approvedReview()}, 1, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/admin/reviews?status=pending", "admin:admin-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminList_InvalidStatus(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/admin/reviews?status=bogus", "admin:admin-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminStats_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("CountByRating", mock.Anything).Return([]domain.RatingBucket{
		{Rating: 3, Approved: false, Count: 4},
	}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/admin/reviews/stats", "admin:admin-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetApproval_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	updated := approvedReview()
	repo.On("Update", mock.Anything, "review-1", mock.MatchedBy(func(p repository.ReviewPatch) bool {
		return p.Approved != nil && *p.Approved
	})).Return(updated, nil)

	approved := true
	rec := doRequest(t, router, http.MethodPatch, "/api/v1/admin/reviews/review-1/approval", "admin:admin-1", SetApprovalRequest{
		Approved: &approved,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetApproval_MissingBodyField(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodPatch, "/api/v1/admin/reviews/review-1/approval", "admin:admin-1", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetPin_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	updated := approvedReview()
	updated.IsPinned = true
	repo.On("Update", mock.Anything, "review-1", mock.MatchedBy(func(p repository.ReviewPatch) bool {
		return p.Pinned != nil && *p.Pinned
	})).Return(updated, nil)

	pinned := true
	rec := doRequest(t, router, http.MethodPatch, "/api/v1/admin/reviews/review-1/pin", "admin:admin-1", SetPinRequest{
		Pinned: &pinned,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetReply_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	updated := approvedReview()
	repo.On("Update", mock.Anything, "review-1", mock.MatchedBy(func(p repository.ReviewPatch) bool {
		return p.Reply != nil && p.Reply.RepliedBy == "admin-1"
	})).Return(updated, nil)

	rec := doRequest(t, router, http.MethodPut, "/api/v1/admin/reviews/review-1/reply", "admin:admin-1", ReplyRequest{
		Content: "Thanks for the feedback.",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRemoveReply_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("Update", mock.Anything, "review-1", mock.MatchedBy(func(p repository.ReviewPatch) bool {
		return p.ClearReply
	})).Return(approvedReview(), nil)

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/admin/reviews/review-1/reply", "admin:admin-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRemoveReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	repo.On("GetByID", mock.Anything, "review-1").Return(approvedReview(), nil)
	repo.On("Delete", mock.Anything, "review-1").Return(nil)

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/admin/reviews/review-1", "admin:admin-1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	repo := new(mockReviewRepo)
	router := testRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
