package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/event"
	"github.com/shoplane/review-service/internal/repository"
	apperrors "github.com/shoplane/review-service/pkg/errors"
)

// ReplyMaxLen caps the length of an admin reply.
const ReplyMaxLen = 2000

// ModerationService implements the admin-facing review operations. Every
// state change is applied as a single partial patch, so two moderators
// toggling different flags on the same review never lose each other's
// update.
type ModerationService struct {
	repo     repository.ReviewRepository
	producer *event.Producer
	policy   AccessPolicy
	logger   *slog.Logger
}

// NewModerationService creates a new moderation service. The policy guards
// every operation; production wiring passes AdminOnly.
func NewModerationService(repo repository.ReviewRepository, producer *event.Producer, policy AccessPolicy, logger *slog.Logger) *ModerationService {
	return &ModerationService{
		repo:     repo,
		producer: producer,
		policy:   policy,
		logger:   logger,
	}
}

func (s *ModerationService) requireAdmin(caller Caller) error {
	return s.policy(caller, nil)
}

// SetApproval approves or unapproves a review.
func (s *ModerationService) SetApproval(ctx context.Context, caller Caller, id string, approved bool) (*domain.Review, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, repository.ReviewPatch{Approved: &approved})
	if err != nil {
		return nil, err
	}

	action := "approved"
	if !approved {
		action = "unapproved"
	}
	s.publishModerated(ctx, updated, caller.ID, action)

	s.logger.InfoContext(ctx, "review approval changed",
		slog.String("review_id", id),
		slog.String("moderator_id", caller.ID),
		slog.Bool("approved", approved),
	)

	return updated, nil
}

// SetPinned pins or unpins a review. Pinned reviews surface at the top of
// the public feed.
func (s *ModerationService) SetPinned(ctx context.Context, caller Caller, id string, pinned bool) (*domain.Review, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, repository.ReviewPatch{Pinned: &pinned})
	if err != nil {
		return nil, err
	}

	action := "pinned"
	if !pinned {
		action = "unpinned"
	}
	s.publishModerated(ctx, updated, caller.ID, action)

	s.logger.InfoContext(ctx, "review pin changed",
		slog.String("review_id", id),
		slog.String("moderator_id", caller.ID),
		slog.Bool("pinned", pinned),
	)

	return updated, nil
}

// Reply attaches or replaces the admin reply on a review.
func (s *ModerationService) Reply(ctx context.Context, caller Caller, id, content string) (*domain.Review, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.InvalidInput("reply content is required")
	}
	if len(content) > ReplyMaxLen {
		return nil, apperrors.InvalidInput(fmt.Sprintf("reply must not exceed %d characters", ReplyMaxLen))
	}

	reply := &domain.AdminReply{
		Content:   content,
		RepliedBy: caller.ID,
		RepliedAt: time.Now().UTC(),
	}

	updated, err := s.repo.Update(ctx, id, repository.ReviewPatch{Reply: reply})
	if err != nil {
		return nil, err
	}

	s.publishModerated(ctx, updated, caller.ID, "replied")

	s.logger.InfoContext(ctx, "admin reply set",
		slog.String("review_id", id),
		slog.String("moderator_id", caller.ID),
	)

	return updated, nil
}

// RemoveReply clears the admin reply. Removing an absent reply succeeds;
// only a missing review is an error.
func (s *ModerationService) RemoveReply(ctx context.Context, caller Caller, id string) (*domain.Review, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, repository.ReviewPatch{ClearReply: true})
	if err != nil {
		return nil, err
	}

	s.publishModerated(ctx, updated, caller.ID, "reply_removed")

	s.logger.InfoContext(ctx, "admin reply removed",
		slog.String("review_id", id),
		slog.String("moderator_id", caller.ID),
	)

	return updated, nil
}

// Remove deletes any review regardless of owner.
func (s *ModerationService) Remove(ctx context.Context, caller Caller, id string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove review: %w", err)
	}

	if err := s.producer.PublishReviewRemoved(ctx, id, existing.OwnerID, caller.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.removed event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review removed by moderator",
		slog.String("review_id", id),
		slog.String("moderator_id", caller.ID),
	)

	return nil
}

func (s *ModerationService) publishModerated(ctx context.Context, rv *domain.Review, moderatorID, action string) {
	if err := s.producer.PublishReviewModerated(ctx, rv, moderatorID, action); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
			slog.String("review_id", rv.ID),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
