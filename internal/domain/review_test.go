package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Status Filter / Sort Order Parsing Tests
// ============================================================================

func TestParseStatusFilter_Valid(t *testing.T) {
	for _, s := range []string{"all", "approved", "pending", "pinned"} {
		got, err := ParseStatusFilter(s)
		require.NoError(t, err)
		assert.Equal(t, StatusFilter(s), got)
	}
}

func TestParseStatusFilter_EmptyDefaultsToAll(t *testing.T) {
	got, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, got)
}

func TestParseStatusFilter_Invalid(t *testing.T) {
	_, err := ParseStatusFilter("rejected")
	assert.Error(t, err)

	_, err = ParseStatusFilter("APPROVED")
	assert.Error(t, err)
}

func TestParseSortOrder_Valid(t *testing.T) {
	for _, s := range []string{"newest", "oldest", "highest", "lowest"} {
		got, err := ParseSortOrder(s)
		require.NoError(t, err)
		assert.Equal(t, SortOrder(s), got)
	}
}

func TestParseSortOrder_EmptyDefaultsToNewest(t *testing.T) {
	got, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortNewest, got)
}

func TestParseSortOrder_Invalid(t *testing.T) {
	_, err := ParseSortOrder("rating")
	assert.Error(t, err)
}

// ============================================================================
// Rating Statistics Tests
// ============================================================================

func TestComputeRatingStats_Empty(t *testing.T) {
	stats := ComputeRatingStats(nil, false)

	assert.Equal(t, 0, stats.TotalReviews)
	assert.Equal(t, 0, stats.ApprovedReviews)
	assert.Equal(t, 0, stats.PendingReviews)
	assert.Zero(t, stats.AverageRating)

	// Every star bucket is present even with no reviews.
	for r := RatingMin; r <= RatingMax; r++ {
		assert.Contains(t, stats.Distribution, r)
		assert.Equal(t, 0, stats.Distribution[r])
		assert.Zero(t, stats.Percentages[r])
	}
}

func TestComputeRatingStats_AllReviews(t *testing.T) {
	buckets := []RatingBucket{
		{Rating: 5, Approved: true, Count: 3},
		{Rating: 4, Approved: true, Count: 1},
		{Rating: 4, Approved: false, Count: 2},
		{Rating: 1, Approved: false, Count: 2},
	}

	stats := ComputeRatingStats(buckets, false)

	assert.Equal(t, 8, stats.TotalReviews)
	assert.Equal(t, 4, stats.ApprovedReviews)
	assert.Equal(t, 4, stats.PendingReviews)
	assert.Equal(t, 3, stats.Distribution[5])
	assert.Equal(t, 3, stats.Distribution[4])
	assert.Equal(t, 2, stats.Distribution[1])

	// (5*3 + 4*3 + 1*2) / 8 = 29/8 = 3.625 -> 3.6
	assert.InDelta(t, 3.6, stats.AverageRating, 0.001)
}

func TestComputeRatingStats_ApprovedOnly(t *testing.T) {
	buckets := []RatingBucket{
		{Rating: 5, Approved: true, Count: 2},
		{Rating: 1, Approved: false, Count: 10},
	}

	stats := ComputeRatingStats(buckets, true)

	// Unapproved reviews are invisible: totals, mean and distribution all
	// cover the approved set alone.
	assert.Equal(t, 2, stats.TotalReviews)
	assert.Equal(t, 2, stats.ApprovedReviews)
	assert.Equal(t, 0, stats.PendingReviews)

	assert.InDelta(t, 5.0, stats.AverageRating, 0.001)
	assert.Equal(t, 2, stats.Distribution[5])
	assert.Equal(t, 0, stats.Distribution[1])
	assert.InDelta(t, 100.0, stats.Percentages[5], 0.001)
}

func TestComputeRatingStats_ApprovedOnlyHidesPendingMajority(t *testing.T) {
	buckets := []RatingBucket{
		{Rating: 5, Approved: true, Count: 2},
		{Rating: 1, Approved: false, Count: 7},
	}

	stats := ComputeRatingStats(buckets, true)

	assert.Equal(t, 2, stats.TotalReviews)
	assert.Equal(t, 0, stats.PendingReviews)
	assert.Equal(t, 0, stats.Distribution[1])
	assert.InDelta(t, 5.0, stats.AverageRating, 0.001)
}

func TestComputeRatingStats_WholePercentRounding(t *testing.T) {
	buckets := []RatingBucket{
		{Rating: 5, Approved: true, Count: 1},
		{Rating: 3, Approved: true, Count: 2},
	}

	stats := ComputeRatingStats(buckets, false)

	// 1/3 -> 33%, 2/3 -> 67%.
	assert.InDelta(t, 33.0, stats.Percentages[5], 0.001)
	assert.InDelta(t, 67.0, stats.Percentages[3], 0.001)
	assert.InDelta(t, 0.0, stats.Percentages[1], 0.001)
}

func TestComputeRatingStats_DistributionSumsToCounted(t *testing.T) {
	buckets := []RatingBucket{
		{Rating: 1, Approved: true, Count: 4},
		{Rating: 2, Approved: true, Count: 3},
		{Rating: 3, Approved: false, Count: 5},
		{Rating: 5, Approved: true, Count: 8},
	}

	stats := ComputeRatingStats(buckets, false)

	sum := 0
	for r := RatingMin; r <= RatingMax; r++ {
		sum += stats.Distribution[r]
	}
	assert.Equal(t, stats.TotalReviews, sum)
	assert.Equal(t, stats.TotalReviews, stats.ApprovedReviews+stats.PendingReviews)
}

func TestComputeRatingStats_IgnoresOutOfRangeBuckets(t *testing.T) {
	buckets := []RatingBucket{
		{Rating: 0, Approved: true, Count: 3},
		{Rating: 6, Approved: true, Count: 3},
		{Rating: 3, Approved: true, Count: 1},
	}

	stats := ComputeRatingStats(buckets, false)

	assert.Equal(t, 1, stats.TotalReviews)
	assert.InDelta(t, 3.0, stats.AverageRating, 0.001)
}

func TestComputeRatingStats_MeanRounding(t *testing.T) {
	buckets := []RatingBucket{
		{Rating: 4, Approved: true, Count: 1},
		{Rating: 5, Approved: true, Count: 2},
	}

	stats := ComputeRatingStats(buckets, true)

	// 14/3 = 4.666... -> 4.7
	assert.InDelta(t, 4.7, stats.AverageRating, 0.001)
}
