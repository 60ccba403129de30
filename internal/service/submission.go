package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/event"
	"github.com/shoplane/review-service/internal/repository"
	apperrors "github.com/shoplane/review-service/pkg/errors"
)

// SubmissionService implements the owner-facing review lifecycle: submit,
// amend and withdraw.
type SubmissionService struct {
	repo     repository.ReviewRepository
	producer *event.Producer
	policy   AccessPolicy
	logger   *slog.Logger
}

// NewSubmissionService creates a new submission service. The policy guards
// Amend and Withdraw; production wiring passes OwnerOnly.
func NewSubmissionService(repo repository.ReviewRepository, producer *event.Producer, policy AccessPolicy, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{
		repo:     repo,
		producer: producer,
		policy:   policy,
		logger:   logger,
	}
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	Rating  int
	Title   string
	Comment string
}

// AmendReviewInput holds the parameters for amending a review. Nil fields
// are left unchanged.
type AmendReviewInput struct {
	Rating  *int
	Title   *string
	Comment *string
}

func validateRating(rating int) error {
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.RatingMin, domain.RatingMax))
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.InvalidInput("title is required")
	}
	if len(title) > domain.TitleMaxLen {
		return apperrors.InvalidInput(fmt.Sprintf("title must not exceed %d characters", domain.TitleMaxLen))
	}
	return nil
}

func validateComment(comment string) error {
	if strings.TrimSpace(comment) == "" {
		return apperrors.InvalidInput("comment is required")
	}
	if len(comment) > domain.CommentMaxLen {
		return apperrors.InvalidInput(fmt.Sprintf("comment must not exceed %d characters", domain.CommentMaxLen))
	}
	return nil
}

// Submit creates a new review for the caller. Reviews always start
// unapproved regardless of who submits them.
func (s *SubmissionService) Submit(ctx context.Context, caller Caller, input *SubmitReviewInput) (*domain.Review, error) {
	if caller.ID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateComment(input.Comment); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		OwnerID:   caller.ID,
		Rating:    input.Rating,
		Title:     strings.TrimSpace(input.Title),
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("owner_id", review.OwnerID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// Amend updates the caller's own review. Amending never resets approval:
// an already approved review stays visible with its edited content.
func (s *SubmissionService) Amend(ctx context.Context, caller Caller, id string, input *AmendReviewInput) (*domain.Review, error) {
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
	}
	if input.Title != nil {
		if err := validateTitle(*input.Title); err != nil {
			return nil, err
		}
	}
	if input.Comment != nil {
		if err := validateComment(*input.Comment); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy(caller, existing); err != nil {
		return nil, err
	}

	patch := repository.ReviewPatch{
		Rating:  input.Rating,
		Comment: input.Comment,
	}
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		patch.Title = &trimmed
	}
	if patch.IsEmpty() {
		return existing, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("amend review: %w", err)
	}

	if err := s.producer.PublishReviewAmended(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.amended event",
			slog.String("review_id", updated.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review amended",
		slog.String("review_id", updated.ID),
		slog.String("owner_id", updated.OwnerID),
	)

	return updated, nil
}

// Withdraw permanently removes the caller's own review.
func (s *SubmissionService) Withdraw(ctx context.Context, caller Caller, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy(caller, existing); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("withdraw review: %w", err)
	}

	if err := s.producer.PublishReviewWithdrawn(ctx, id, existing.OwnerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.withdrawn event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review withdrawn",
		slog.String("review_id", id),
		slog.String("owner_id", existing.OwnerID),
	)

	return nil
}
