package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/review-service/internal/domain"
	"github.com/shoplane/review-service/internal/service"
	"github.com/shoplane/review-service/pkg/httputil"
	"github.com/shoplane/review-service/pkg/pagination"
	"github.com/shoplane/review-service/pkg/validator"
)

// AdminHandler handles the moderation endpoints.
type AdminHandler struct {
	moderation *service.ModerationService
	feed       *service.FeedService
	logger     *slog.Logger
}

// NewAdminHandler creates a new moderation HTTP handler.
func NewAdminHandler(moderation *service.ModerationService, feed *service.FeedService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		feed:       feed,
		logger:     logger,
	}
}

// --- Request DTOs ---

// SetApprovalRequest is the JSON request body for changing approval.
type SetApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// SetPinRequest is the JSON request body for changing the pin flag.
type SetPinRequest struct {
	Pinned *bool `json:"pinned" validate:"required"`
}

// ReplyRequest is the JSON request body for setting the admin reply.
type ReplyRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/admin/reviews
// @Summary List reviews for moderation
// @Description Returns reviews in any moderation state, with author profiles resolved. Search matches title, comment and author name.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter: all, approved, pending, pinned" default(all)
// @Param search query string false "Search term"
// @Param min_rating query int false "Minimum star rating (1-5)"
// @Param sort query string false "Sort order: newest, oldest, highest, lowest" default(newest)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/reviews [get]
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}
	sort, ok := sortFromQuery(w, r)
	if !ok {
		return
	}
	params := pagination.FromRequest(r)

	result, err := h.feed.ModerationList(r.Context(), service.ModerationQuery{
		Status:    status,
		MinRating: minRatingFromQuery(r),
		Search:    r.URL.Query().Get("search"),
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

// GetStats handles GET /api/v1/admin/reviews/stats
// @Summary Moderation statistics
// @Description Returns rating distribution and average over all reviews, including pending ones
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/stats [get]
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.feed.ModerationStats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// SetApproval handles PATCH /api/v1/admin/reviews/{reviewID}/approval
// @Summary Approve or unapprove a review
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review UUID"
// @Param request body SetApprovalRequest true "New approval state"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{reviewID}/approval [patch]
func (h *AdminHandler) SetApproval(w http.ResponseWriter, r *http.Request) {
	var req SetApprovalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.moderation.SetApproval(r.Context(), callerFromRequest(r), chi.URLParam(r, "reviewID"), *req.Approved)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// SetPin handles PATCH /api/v1/admin/reviews/{reviewID}/pin
// @Summary Pin or unpin a review
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review UUID"
// @Param request body SetPinRequest true "New pin state"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{reviewID}/pin [patch]
func (h *AdminHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	var req SetPinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.moderation.SetPinned(r.Context(), callerFromRequest(r), chi.URLParam(r, "reviewID"), *req.Pinned)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// SetReply handles PUT /api/v1/admin/reviews/{reviewID}/reply
// @Summary Attach or replace the admin reply
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review UUID"
// @Param request body ReplyRequest true "Reply content"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{reviewID}/reply [put]
func (h *AdminHandler) SetReply(w http.ResponseWriter, r *http.Request) {
	var req ReplyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.moderation.Reply(r.Context(), callerFromRequest(r), chi.URLParam(r, "reviewID"), req.Content)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// RemoveReply handles DELETE /api/v1/admin/reviews/{reviewID}/reply
// @Summary Remove the admin reply
// @Description Clearing an absent reply succeeds; only a missing review is 404
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{reviewID}/reply [delete]
func (h *AdminHandler) RemoveReply(w http.ResponseWriter, r *http.Request) {
	review, err := h.moderation.RemoveReply(r.Context(), callerFromRequest(r), chi.URLParam(r, "reviewID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// RemoveReview handles DELETE /api/v1/admin/reviews/{reviewID}
// @Summary Remove any review
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param reviewID path string true "Review UUID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{reviewID} [delete]
func (h *AdminHandler) RemoveReview(w http.ResponseWriter, r *http.Request) {
	if err := h.moderation.Remove(r.Context(), callerFromRequest(r), chi.URLParam(r, "reviewID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
