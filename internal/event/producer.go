package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shoplane/review-service/internal/domain"
	pkgkafka "github.com/shoplane/review-service/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewSubmitted = "reviews.review.submitted"
	TopicReviewAmended   = "reviews.review.amended"
	TopicReviewWithdrawn = "reviews.review.withdrawn"
	TopicReviewModerated = "reviews.review.moderated"
	TopicReviewRemoved   = "reviews.review.removed"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the review service.
const SourceReviewService = "review-service"

// ReviewData is the payload for review lifecycle events.
type ReviewData struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	IsApproved bool   `json:"is_approved"`
	IsPinned   bool   `json:"is_pinned"`
}

// ReviewModeratedData is the payload for a review.moderated event.
type ReviewModeratedData struct {
	ID          string `json:"id"`
	ModeratorID string `json:"moderator_id"`
	// Action is one of: approved, unapproved, pinned, unpinned, replied, reply_removed.
	Action     string `json:"action"`
	IsApproved bool   `json:"is_approved"`
	IsPinned   bool   `json:"is_pinned"`
}

// ReviewRemovedData is the payload for review.withdrawn and review.removed events.
type ReviewRemovedData struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	RemovedBy string `json:"removed_by"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func reviewData(rv *domain.Review) ReviewData {
	return ReviewData{
		ID:         rv.ID,
		OwnerID:    rv.OwnerID,
		Rating:     rv.Rating,
		Title:      rv.Title,
		IsApproved: rv.IsApproved,
		IsPinned:   rv.IsPinned,
	}
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, rv *domain.Review) error {
	return p.publish(ctx, TopicReviewSubmitted, rv.ID, reviewData(rv))
}

// PublishReviewAmended publishes a review.amended event.
func (p *Producer) PublishReviewAmended(ctx context.Context, rv *domain.Review) error {
	return p.publish(ctx, TopicReviewAmended, rv.ID, reviewData(rv))
}

// PublishReviewWithdrawn publishes a review.withdrawn event.
func (p *Producer) PublishReviewWithdrawn(ctx context.Context, id, ownerID string) error {
	return p.publish(ctx, TopicReviewWithdrawn, id, ReviewRemovedData{
		ID:        id,
		OwnerID:   ownerID,
		RemovedBy: ownerID,
	})
}

// PublishReviewModerated publishes a review.moderated event.
func (p *Producer) PublishReviewModerated(ctx context.Context, rv *domain.Review, moderatorID, action string) error {
	return p.publish(ctx, TopicReviewModerated, rv.ID, ReviewModeratedData{
		ID:          rv.ID,
		ModeratorID: moderatorID,
		Action:      action,
		IsApproved:  rv.IsApproved,
		IsPinned:    rv.IsPinned,
	})
}

// PublishReviewRemoved publishes a review.removed event for an admin deletion.
func (p *Producer) PublishReviewRemoved(ctx context.Context, id, ownerID, moderatorID string) error {
	return p.publish(ctx, TopicReviewRemoved, id, ReviewRemovedData{
		ID:        id,
		OwnerID:   ownerID,
		RemovedBy: moderatorID,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", aggregateID),
	)

	return nil
}
