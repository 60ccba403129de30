package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/identity"
	"github.com/shoplane/review-service/internal/repository"
	"github.com/shoplane/review-service/pkg/pagination"
)

// IdentityResolver resolves review authors to public profiles.
type IdentityResolver interface {
	ResolveBatch(ctx context.Context, cache identity.Cache, userIDs []string) map[string]identity.Identity
}

// ReviewWithAuthor is a review joined with its author's public profile.
type ReviewWithAuthor struct {
	domain.Review
	Author identity.Identity `json:"author"`
}

// FeedQuery holds the parameters for the public review feed.
type FeedQuery struct {
	MinRating *int
	Sort      domain.SortOrder
	Page      int
	PerPage   int
}

// ModerationQuery holds the parameters for the admin review listing.
type ModerationQuery struct {
	Status    domain.StatusFilter
	MinRating *int
	// Search matches title, comment and resolved author name,
	// case-insensitively.
	Search  string
	Sort    domain.SortOrder
	Page    int
	PerPage int
}

// FeedService implements the read side: public feed, own reviews, the admin
// listing and statistics.
type FeedService struct {
	repo     repository.ReviewRepository
	resolver IdentityResolver
	logger   *slog.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(repo repository.ReviewRepository, resolver IdentityResolver, logger *slog.Logger) *FeedService {
	return &FeedService{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// PublicFeed returns approved reviews with pinned entries first. Authors
// are resolved in a single batch per request.
func (s *FeedService) PublicFeed(ctx context.Context, query FeedQuery) (*pagination.Result[ReviewWithAuthor], error) {
	params := pagination.Normalize(query.Page, query.PerPage)

	reviews, total, err := s.repo.List(ctx, repository.ReviewFilter{
		Status:      domain.StatusApproved,
		MinRating:   query.MinRating,
		PinnedFirst: true,
		Sort:        query.Sort,
		Page:        params.Page,
		PerPage:     params.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list public feed: %w", err)
	}

	items := s.withAuthors(ctx, identity.Cache{}, reviews)
	result := pagination.NewResult(items, total, params.Page, params.PerPage)
	return &result, nil
}

// OwnReviews returns the caller's reviews regardless of approval state.
func (s *FeedService) OwnReviews(ctx context.Context, caller Caller, page, perPage int) (*pagination.Result[domain.Review], error) {
	params := pagination.Normalize(page, perPage)

	reviews, total, err := s.repo.List(ctx, repository.ReviewFilter{
		Status:  domain.StatusAll,
		OwnerID: &caller.ID,
		Sort:    domain.SortNewest,
		Page:    params.Page,
		PerPage: params.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list own reviews: %w", err)
	}

	result := pagination.NewResult(reviews, total, params.Page, params.PerPage)
	return &result, nil
}

// ModerationList returns the admin listing. Status, minimum rating and sort
// order are pushed down to the store; a search term additionally matches the
// resolved author name, so searching filters in memory over the full sorted
// set before paginating.
func (s *FeedService) ModerationList(ctx context.Context, query ModerationQuery) (*pagination.Result[ReviewWithAuthor], error) {
	params := pagination.Normalize(query.Page, query.PerPage)
	search := strings.TrimSpace(query.Search)

	filter := repository.ReviewFilter{
		Status:    query.Status,
		MinRating: query.MinRating,
		Sort:      query.Sort,
	}
	if search == "" {
		filter.Page = params.Page
		filter.PerPage = params.PerPage
	}

	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reviews for moderation: %w", err)
	}

	items := s.withAuthors(ctx, identity.Cache{}, reviews)

	if search != "" {
		items = filterItems(items, matchesSearch(search))
		total = len(items)
		items = pageSlice(items, params)
	}

	result := pagination.NewResult(items, total, params.Page, params.PerPage)
	return &result, nil
}

// PublicStats returns the statistics over approved reviews only.
func (s *FeedService) PublicStats(ctx context.Context) (*domain.RatingStats, error) {
	return s.stats(ctx, true)
}

// ModerationStats returns the statistics over the full review set,
// including pending reviews.
func (s *FeedService) ModerationStats(ctx context.Context) (*domain.RatingStats, error) {
	return s.stats(ctx, false)
}

func (s *FeedService) stats(ctx context.Context, approvedOnly bool) (*domain.RatingStats, error) {
	buckets, err := s.repo.CountByRating(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rating counts: %w", err)
	}

	stats := domain.ComputeRatingStats(buckets, approvedOnly)
	return &stats, nil
}

// withAuthors attaches resolved author profiles to reviews using one batch
// lookup over the request-scoped cache.
func (s *FeedService) withAuthors(ctx context.Context, cache identity.Cache, reviews []domain.Review) []ReviewWithAuthor {
	ownerIDs := make([]string, 0, len(reviews))
	for _, rv := range reviews {
		ownerIDs = append(ownerIDs, rv.OwnerID)
	}

	identities := s.resolver.ResolveBatch(ctx, cache, ownerIDs)

	items := make([]ReviewWithAuthor, 0, len(reviews))
	for _, rv := range reviews {
		author, ok := identities[rv.OwnerID]
		if !ok {
			author = identity.Placeholder
		}
		items = append(items, ReviewWithAuthor{Review: rv, Author: author})
	}

	return items
}

// predicate decides whether a listed review stays in a filtered result.
type predicate func(item ReviewWithAuthor) bool

func filterItems(items []ReviewWithAuthor, preds ...predicate) []ReviewWithAuthor {
	kept := make([]ReviewWithAuthor, 0, len(items))
outer:
	for _, item := range items {
		for _, pred := range preds {
			if !pred(item) {
				continue outer
			}
		}
		kept = append(kept, item)
	}
	return kept
}

func matchesSearch(term string) predicate {
	folded := strings.ToLower(term)
	return func(item ReviewWithAuthor) bool {
		return strings.Contains(strings.ToLower(item.Title), folded) ||
			strings.Contains(strings.ToLower(item.Comment), folded) ||
			strings.Contains(strings.ToLower(item.Author.DisplayName), folded)
	}
}

func pageSlice(items []ReviewWithAuthor, params pagination.Params) []ReviewWithAuthor {
	start := params.Offset
	if start >= len(items) {
		return []ReviewWithAuthor{}
	}
	end := start + params.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
