// Package identity resolves user IDs to public display profiles via the
// user service. Lookups are batched and failures degrade to placeholder
// identities so review listings never fail because the user service is down.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shoplane/review-service/pkg/logger"
)

// Identity is the public profile attached to a review author.
type Identity struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Placeholder is substituted for authors the user service could not resolve.
var Placeholder = Identity{DisplayName: "Unknown User"}

// Cache is a request-scoped identity cache. It is not safe for concurrent
// use and must not outlive the request that created it.
type Cache map[string]Identity

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Resolver looks up user identities from the user service.
type Resolver struct {
	client  HTTPDoer
	baseURL string
}

// NewResolver creates a resolver backed by the user service at baseURL.
func NewResolver(client HTTPDoer, baseURL string) *Resolver {
	return &Resolver{client: client, baseURL: baseURL}
}

type batchRequest struct {
	UserIDs []string `json:"user_ids"`
}

type batchResponse struct {
	Users map[string]Identity `json:"users"`
}

// ResolveBatch resolves the given user IDs, consulting cache first and
// issuing at most one HTTP call for the remainder. Duplicate IDs are
// deduplicated. IDs the user service cannot resolve, and the entire batch
// when the call fails, map to Placeholder; the error is logged, never
// returned, so a degraded user service cannot break listings.
func (r *Resolver) ResolveBatch(ctx context.Context, cache Cache, userIDs []string) map[string]Identity {
	result := make(map[string]Identity, len(userIDs))

	var missing []string
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if cached, ok := cache[id]; ok {
			result[id] = cached
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result
	}

	resolved, err := r.fetch(ctx, missing)
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "identity resolution degraded",
			slog.Int("user_count", len(missing)),
			slog.String("error", err.Error()),
		)
		resolved = nil
	}

	for _, id := range missing {
		identity, ok := resolved[id]
		if !ok {
			identity = Placeholder
		}
		cache[id] = identity
		result[id] = identity
	}

	return result
}

func (r *Resolver) fetch(ctx context.Context, userIDs []string) (map[string]Identity, error) {
	body, err := json.Marshal(batchRequest{UserIDs: userIDs})
	if err != nil {
		return nil, fmt.Errorf("marshal identity batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/api/v1/users/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create identity batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("identity batch call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity batch call: unexpected status %d", resp.StatusCode)
	}

	var parsed batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode identity batch response: %w", err)
	}

	return parsed.Users, nil
}
