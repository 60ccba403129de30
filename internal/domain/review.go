package domain

import (
	"fmt"
	"math"
	"time"
)

// Rating and field limits enforced at submission time.
const (
	RatingMin     = 1
	RatingMax     = 5
	TitleMaxLen   = 200
	CommentMaxLen = 4000
)

// AdminReply is an optional moderator response attached to a review.
type AdminReply struct {
	Content   string    `json:"content"`
	RepliedBy string    `json:"replied_by"`
	RepliedAt time.Time `json:"replied_at"`
}

// Review is a star-rated review submitted by a user. A review starts
// unapproved and only becomes publicly visible once a moderator approves it.
type Review struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Rating     int         `json:"rating"`
	Title      string      `json:"title"`
	Comment    string      `json:"comment"`
	IsApproved bool        `json:"is_approved"`
	IsPinned   bool        `json:"is_pinned"`
	AdminReply *AdminReply `json:"admin_reply,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// StatusFilter selects reviews by moderation state.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusApproved StatusFilter = "approved"
	StatusPending  StatusFilter = "pending"
	StatusPinned   StatusFilter = "pinned"
)

// ParseStatusFilter validates a status filter string. An empty value
// defaults to StatusAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "":
		return StatusAll, nil
	case StatusAll, StatusApproved, StatusPending, StatusPinned:
		return StatusFilter(s), nil
	default:
		return "", fmt.Errorf("invalid status filter %q", s)
	}
}

// SortOrder controls how a review listing is ordered. Every order uses
// newest-first creation time and then ID as tie-breaks, so paging over an
// unchanged data set is stable.
type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
	SortHighest SortOrder = "highest"
	SortLowest  SortOrder = "lowest"
)

// ParseSortOrder validates a sort order string. An empty value defaults
// to SortNewest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortHighest, SortLowest:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("invalid sort order %q", s)
	}
}

// RatingBucket is one row of the grouped rating counts: how many reviews
// carry a given star rating, split by approval state.
type RatingBucket struct {
	Rating   int
	Approved bool
	Count    int
}

// RatingStats is the aggregate view over a set of reviews.
type RatingStats struct {
	TotalReviews    int             `json:"total_reviews"`
	ApprovedReviews int             `json:"approved_reviews"`
	PendingReviews  int             `json:"pending_reviews"`
	AverageRating   float64         `json:"average_rating"`
	Distribution    map[int]int     `json:"distribution"`
	Percentages     map[int]float64 `json:"percentages"`
}

// ComputeRatingStats folds grouped rating buckets into aggregate statistics.
// When approvedOnly is set, unapproved reviews are excluded entirely: totals,
// mean and distribution all cover the approved set alone, so the public view
// reveals nothing about pending reviews. Percentages are whole percents,
// rounded half away from zero. An empty population yields a zero mean rather
// than NaN.
func ComputeRatingStats(buckets []RatingBucket, approvedOnly bool) RatingStats {
	stats := RatingStats{
		Distribution: make(map[int]int, RatingMax),
		Percentages:  make(map[int]float64, RatingMax),
	}
	for r := RatingMin; r <= RatingMax; r++ {
		stats.Distribution[r] = 0
		stats.Percentages[r] = 0
	}

	var counted, ratingSum int
	for _, b := range buckets {
		if b.Rating < RatingMin || b.Rating > RatingMax {
			continue
		}
		if approvedOnly && !b.Approved {
			continue
		}
		stats.TotalReviews += b.Count
		if b.Approved {
			stats.ApprovedReviews += b.Count
		} else {
			stats.PendingReviews += b.Count
		}
		stats.Distribution[b.Rating] += b.Count
		counted += b.Count
		ratingSum += b.Rating * b.Count
	}

	if counted > 0 {
		stats.AverageRating = math.Round(float64(ratingSum)/float64(counted)*10) / 10
		for r := RatingMin; r <= RatingMax; r++ {
			stats.Percentages[r] = math.Round(float64(stats.Distribution[r]) / float64(counted) * 100)
		}
	}

	return stats
}
