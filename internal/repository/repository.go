package repository

import (
	"context"

	"github.com/shoplane/review-service/internal/domain"
)

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	Status    domain.StatusFilter
	OwnerID   *string
	MinRating *int
	// PinnedFirst surfaces pinned reviews before the rest of the listing.
	PinnedFirst bool
	Sort        domain.SortOrder
	Page        int
	// PerPage of 0 disables pagination and returns the full filtered set.
	PerPage int
}

// ReviewPatch describes a partial update to a review. Nil pointer fields are
// left untouched; the whole patch is applied as a single statement so
// concurrent moderation actions never overwrite each other's fields.
type ReviewPatch struct {
	Rating   *int
	Title    *string
	Comment  *string
	Approved *bool
	Pinned   *bool
	// Reply sets the admin reply; ClearReply removes it. When both are
	// set, Reply wins.
	Reply      *domain.AdminReply
	ClearReply bool
}

// IsEmpty reports whether the patch would change nothing.
func (p ReviewPatch) IsEmpty() bool {
	return p.Rating == nil && p.Title == nil && p.Comment == nil &&
		p.Approved == nil && p.Pinned == nil && p.Reply == nil && !p.ClearReply
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the filter along with the total count
	// of matches before pagination.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// Update applies a partial patch to a review atomically and returns
	// the updated row.
	Update(ctx context.Context, id string, patch ReviewPatch) (*domain.Review, error)

	// Delete removes a review from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// CountByRating returns review counts grouped by star rating and
	// approval state.
	CountByRating(ctx context.Context) ([]domain.RatingBucket, error)
}
