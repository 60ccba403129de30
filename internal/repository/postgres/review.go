package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/repository"
	"github.com/shoplane/review-service/pkg/database"
	apperrors "github.com/shoplane/review-service/pkg/errors"
)

const reviewColumns = `id, owner_id, rating, title, comment, is_approved, is_pinned,
	       reply_content, reply_by, reply_at, created_at, updated_at`

// ReviewRepository implements review persistence using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review into the database.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, owner_id, rating, title, comment, is_approved, is_pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.OwnerID,
		review.Rating,
		review.Title,
		review.Comment,
		review.IsApproved,
		review.IsPinned,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a single review.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rv, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return rv, nil
}

// List returns reviews matching the filter along with the total count of
// matches before pagination. A PerPage of 0 returns the full filtered set.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	switch filter.Status {
	case domain.StatusApproved:
		conditions = append(conditions, "is_approved = TRUE")
	case domain.StatusPending:
		conditions = append(conditions, "is_approved = FALSE")
	case domain.StatusPinned:
		conditions = append(conditions, "is_pinned = TRUE")
	}

	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIndex))
		args = append(args, *filter.OwnerID)
		argIndex++
	}

	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", argIndex))
		args = append(args, *filter.MinRating)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY %s`, reviewColumns, whereClause, orderClause(filter))

	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.PerPage, (page-1)*filter.PerPage)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		rv, err := scanReviewWithTotal(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// Update applies a partial patch in a single UPDATE statement and returns
// the updated row. Untouched fields keep their stored values.
func (r *ReviewRepository) Update(ctx context.Context, id string, patch repository.ReviewPatch) (*domain.Review, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var (
		setClauses []string
		args       []any
		argIndex   = 1
	)

	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if patch.Rating != nil {
		set("rating", *patch.Rating)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Comment != nil {
		set("comment", *patch.Comment)
	}
	if patch.Approved != nil {
		set("is_approved", *patch.Approved)
	}
	if patch.Pinned != nil {
		set("is_pinned", *patch.Pinned)
	}
	if patch.Reply != nil {
		set("reply_content", patch.Reply.Content)
		set("reply_by", patch.Reply.RepliedBy)
		set("reply_at", patch.Reply.RepliedAt)
	} else if patch.ClearReply {
		setClauses = append(setClauses, "reply_content = NULL", "reply_by = NULL", "reply_at = NULL")
	}

	set("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`
		UPDATE reviews
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(setClauses, ", "), argIndex, reviewColumns)
	args = append(args, id)

	rv, err := scanReview(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	return rv, nil
}

// Delete removes a review by ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// CountByRating returns review counts grouped by star rating and approval
// state. Ratings with no reviews produce no bucket.
func (r *ReviewRepository) CountByRating(ctx context.Context) ([]domain.RatingBucket, error) {
	query := `
		SELECT rating, is_approved, COUNT(*)
		FROM reviews
		GROUP BY rating, is_approved
		ORDER BY rating, is_approved`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count reviews by rating: %w", err)
	}
	defer rows.Close()

	var buckets []domain.RatingBucket
	for rows.Next() {
		var b domain.RatingBucket
		if err := rows.Scan(&b.Rating, &b.Approved, &b.Count); err != nil {
			return nil, fmt.Errorf("scan rating bucket: %w", err)
		}
		buckets = append(buckets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating buckets: %w", err)
	}

	return buckets, nil
}

// orderClause maps the filter's sort order onto stable ORDER BY terms.
// Creation time descending and then ID break ties for every order, so
// repeated pages over an unchanged set never shuffle rows.
func orderClause(filter repository.ReviewFilter) string {
	var terms []string
	if filter.PinnedFirst {
		terms = append(terms, "is_pinned DESC")
	}

	switch filter.Sort {
	case domain.SortOldest:
		terms = append(terms, "created_at ASC")
	case domain.SortHighest:
		terms = append(terms, "rating DESC", "created_at DESC")
	case domain.SortLowest:
		terms = append(terms, "rating ASC", "created_at DESC")
	default: // newest
		terms = append(terms, "created_at DESC")
	}

	terms = append(terms, "id ASC")
	return strings.Join(terms, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*domain.Review, error) {
	return scanInto(row, nil)
}

func scanReviewWithTotal(row rowScanner, total *int) (*domain.Review, error) {
	return scanInto(row, total)
}

func scanInto(row rowScanner, total *int) (*domain.Review, error) {
	var (
		rv           domain.Review
		replyContent *string
		replyBy      *string
		replyAt      *time.Time
	)

	dest := []any{
		&rv.ID,
		&rv.OwnerID,
		&rv.Rating,
		&rv.Title,
		&rv.Comment,
		&rv.IsApproved,
		&rv.IsPinned,
		&replyContent,
		&replyBy,
		&replyAt,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if replyContent != nil && replyBy != nil && replyAt != nil {
		rv.AdminReply = &domain.AdminReply{
			Content:   *replyContent,
			RepliedBy: *replyBy,
			RepliedAt: *replyAt,
		}
	}

	return &rv, nil
}
