package http

import (
	"net/http"

	"github.com/shoplane/review-service/internal/service"
	"github.com/shoplane/review-service/pkg/middleware"
)

// ContentTypeJSON sets the JSON content type on all responses.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// adminRole is the role name granted moderation capabilities.
const adminRole = "admin"

// callerFromRequest builds the service-layer caller from the authenticated
// request context.
func callerFromRequest(r *http.Request) service.Caller {
	return service.Caller{
		ID:    middleware.UserIDFromContext(r.Context()),
		Admin: middleware.RoleFromContext(r.Context()) == adminRole,
	}
}
