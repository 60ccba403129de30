package service

import (
	"github.com/shoplane/review-service/internal/domain"
	apperrors "github.com/shoplane/review-service/pkg/errors"
)

// Caller identifies the authenticated principal performing an operation.
type Caller struct {
	ID    string
	Admin bool
}

// AccessPolicy decides whether a caller may act on a review. Policies are
// injected into the services, and evaluated after the review is loaded, so a
// failing policy always means forbidden rather than not found.
type AccessPolicy func(caller Caller, rv *domain.Review) error

// OwnerOnly permits the review's owner and nobody else. Admins go through
// the moderation service for their own, narrower set of mutations.
func OwnerOnly(caller Caller, rv *domain.Review) error {
	if caller.ID == rv.OwnerID {
		return nil
	}
	return apperrors.Forbidden("you do not own this review")
}

// AdminOnly permits admins regardless of ownership.
func AdminOnly(caller Caller, _ *domain.Review) error {
	if caller.Admin {
		return nil
	}
	return apperrors.Forbidden("admin access required")
}
