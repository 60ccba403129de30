package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/event"
	"github.com/shoplane/review-service/internal/identity"
	"github.com/shoplane/review-service/internal/repository"
	pkgkafka "github.com/shoplane/review-service/pkg/kafka"
)

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Update(ctx context.Context, id string, patch repository.ReviewPatch) (*domain.Review, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) CountByRating(ctx context.Context) ([]domain.RatingBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RatingBucket), args.Error(1)
}

// --- Mock Identity Resolver ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveBatch(ctx context.Context, cache identity.Cache, userIDs []string) map[string]identity.Identity {
	args := m.Called(ctx, cache, userIDs)
	return args.Get(0).(map[string]identity.Identity)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() *event.Producer {
	logger := newTestLogger()
	// A Kafka producer with no real broker behind it; publish failures are
	// logged, not returned, so tests run without Kafka.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func newTestSubmissionService(repo *mockReviewRepository) *SubmissionService {
	return NewSubmissionService(repo, newTestProducer(), OwnerOnly, newTestLogger())
}

func newTestModerationService(repo *mockReviewRepository) *ModerationService {
	return NewModerationService(repo, newTestProducer(), AdminOnly, newTestLogger())
}

func newTestFeedService(repo *mockReviewRepository, resolver *mockResolver) *FeedService {
	return NewFeedService(repo, resolver, newTestLogger())
}

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func sampleReview() *domain.Review {
	return &domain.Review{
		ID:        "review-1",
		OwnerID:   "user-1",
		Rating:    4,
		Title:     "Solid experience",
		Comment:   "Delivery was quick.",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func owner() Caller { return Caller{ID: "user-1"} }
func admin() Caller { return Caller{ID: "admin-1", Admin: true} }
