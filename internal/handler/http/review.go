package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/service"
	"github.com/shoplane/review-service/pkg/httputil"
	"github.com/shoplane/review-service/pkg/pagination"
	"github.com/shoplane/review-service/pkg/validator"
)

// ReviewHandler handles the public and owner-facing review endpoints.
type ReviewHandler struct {
	submissions *service.SubmissionService
	feed        *service.FeedService
	logger      *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(submissions *service.SubmissionService, feed *service.FeedService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		submissions: submissions,
		feed:        feed,
		logger:      logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"required,max=200"`
	Comment string `json:"comment" validate:"required,max=4000"`
}

// AmendReviewRequest is the JSON request body for amending a review.
// Omitted fields keep their current values.
type AmendReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Comment *string `json:"comment" validate:"omitempty,max=4000"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}

func sortFromQuery(w http.ResponseWriter, r *http.Request) (domain.SortOrder, bool) {
	sort, err := domain.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return "", false
	}
	return sort, true
}

func minRatingFromQuery(r *http.Request) *int {
	if v := r.URL.Query().Get("min_rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= domain.RatingMin && n <= domain.RatingMax {
			return &n
		}
	}
	return nil
}

// --- Handlers ---

// ListReviews handles GET /api/v1/reviews
// @Summary List approved reviews
// @Description Returns the public review feed: approved reviews with pinned entries first
// @Tags reviews
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Param sort query string false "Sort order: newest, oldest, highest, lowest" default(newest)
// @Param min_rating query int false "Minimum star rating (1-5)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	sort, ok := sortFromQuery(w, r)
	if !ok {
		return
	}
	params := pagination.FromRequest(r)

	result, err := h.feed.PublicFeed(r.Context(), service.FeedQuery{
		MinRating: minRatingFromQuery(r),
		Sort:      sort,
		Page:      params.Page,
		PerPage:   params.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetStats handles GET /api/v1/reviews/stats
// @Summary Review statistics
// @Description Returns rating distribution and average over approved reviews
// @Tags reviews
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/reviews/stats [get]
func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.feed.PublicStats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// ListOwnReviews handles GET /api/v1/reviews/mine
// @Summary List the caller's reviews
// @Description Returns the authenticated user's reviews regardless of approval state
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/reviews/mine [get]
func (h *ReviewHandler) ListOwnReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	result, err := h.feed.OwnReviews(r.Context(), callerFromRequest(r), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// SubmitReview handles POST /api/v1/reviews
// @Summary Submit a review
// @Description Creates a new review; it stays hidden until a moderator approves it
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitReviewRequest true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/reviews [post]
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.submissions.Submit(r.Context(), callerFromRequest(r), &service.SubmitReviewInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// AmendReview handles PUT /api/v1/reviews/{reviewID}
// @Summary Amend a review
// @Description Updates the caller's own review; approval state is preserved
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review UUID"
// @Param request body AmendReviewRequest true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{reviewID} [put]
func (h *ReviewHandler) AmendReview(w http.ResponseWriter, r *http.Request) {
	var req AmendReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.submissions.Amend(r.Context(), callerFromRequest(r), chi.URLParam(r, "reviewID"), &service.AmendReviewInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// WithdrawReview handles DELETE /api/v1/reviews/{reviewID}
// @Summary Withdraw a review
// @Description Permanently removes the caller's own review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review UUID"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{reviewID} [delete]
func (h *ReviewHandler) WithdrawReview(w http.ResponseWriter, r *http.Request) {
	if err := h.submissions.Withdraw(r.Context(), callerFromRequest(r), chi.URLParam(r, "reviewID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
