// Package tokens retries upstream calls with a resource-scoped access token
// when the tenant's own token is refused.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/HyphaGroup/adgate/internal/graph"
	"github.com/HyphaGroup/adgate/internal/logger"
	"github.com/HyphaGroup/adgate/internal/metrics"
	"github.com/HyphaGroup/adgate/internal/session"
	"github.com/HyphaGroup/adgate/internal/validation"
)

// invalidTokenCode is the platform's error code for an expired or revoked token.
const invalidTokenCode = 190

// FailureKind says which step of the fallback gave up.
type FailureKind string

const (
	// LookupFailed means the resource token could not be fetched at all.
	LookupFailed FailureKind = "lookup_failed"
	// NoResourceToken means the lookup succeeded but returned no token.
	NoResourceToken FailureKind = "no_resource_token"
	// RetryRejected means the resource token was used and upstream refused it.
	RetryRejected FailureKind = "retry_rejected"
)

// FallbackError carries both failure reasons after the broad and the
// resource-scoped attempts have failed.
type FallbackError struct {
	Kind       FailureKind
	ResourceID string
	Broad      error
	Narrow     error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("tenant token: %v; resource token for %s: %v", e.Broad, e.ResourceID, e.Narrow)
}

func (e *FallbackError) Unwrap() []error {
	return []error{e.Broad, e.Narrow}
}

// SessionSource looks up tenant sessions
type SessionSource interface {
	Get(tenantID string) (session.View, bool)
}

// Resolver runs upstream calls with the tenant token first and a cached
// resource token second.
type Resolver struct {
	caller   graph.Caller
	sessions SessionSource
	cache    *expirable.LRU[string, string]
}

// NewResolver creates a fallback resolver. cacheSize bounds the number of
// resource tokens kept; ttl bounds how long each is reused.
func NewResolver(caller graph.Caller, sessions SessionSource, cacheSize int, ttl time.Duration) *Resolver {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &Resolver{
		caller:   caller,
		sessions: sessions,
		cache:    expirable.NewLRU[string, string](cacheSize, nil, ttl),
	}
}

// InvokeWithFallback calls endpoint with the tenant's token. Any error from
// that attempt triggers one retry with the access token of the resource that
// owns targetID (the part before the first "_", or the whole id). A nil error
// on the first attempt is success regardless of the payload.
func (r *Resolver) InvokeWithFallback(ctx context.Context, tenantID, targetID, endpoint, method string, params map[string]any) (map[string]any, error) {
	view, ok := r.sessions.Get(tenantID)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	userToken := view.Credentials.AccessToken

	body, broadErr := r.caller.Call(ctx, graph.Request{
		Method: method,
		Path:   endpoint,
		Token:  userToken,
		Params: params,
	})
	if broadErr == nil {
		return body, nil
	}

	resourceID := validation.ParseCompositeID(targetID).OwnerID
	logger.DebugContext(ctx, "tenant token refused, trying resource token",
		"endpoint", endpoint, "resource_id", resourceID, "error", broadErr)

	resourceToken, err := r.resourceToken(ctx, tenantID, userToken, resourceID)
	if err != nil {
		kind := LookupFailed
		if errors.Is(err, graph.ErrNoResourceToken) {
			kind = NoResourceToken
		}
		metrics.RecordTokenFallback(string(kind))
		return nil, &FallbackError{Kind: kind, ResourceID: resourceID, Broad: broadErr, Narrow: err}
	}

	body, err = r.caller.Call(ctx, graph.Request{
		Method: method,
		Path:   endpoint,
		Token:  resourceToken,
		Params: params,
	})
	if err != nil {
		var apiErr *graph.APIError
		if errors.As(err, &apiErr) && apiErr.Code == invalidTokenCode {
			r.cache.Remove(cacheKey(tenantID, resourceID))
		}
		metrics.RecordTokenFallback(string(RetryRejected))
		return nil, &FallbackError{Kind: RetryRejected, ResourceID: resourceID, Broad: broadErr, Narrow: err}
	}

	metrics.RecordTokenFallback("recovered")
	return body, nil
}

func cacheKey(tenantID, resourceID string) string {
	return tenantID + "|" + resourceID
}

// resourceToken returns a cached token or fetches a fresh one. Two
// concurrent misses may both fetch; the later Add wins.
func (r *Resolver) resourceToken(ctx context.Context, tenantID, userToken, resourceID string) (string, error) {
	key := cacheKey(tenantID, resourceID)
	if token, ok := r.cache.Get(key); ok {
		return token, nil
	}

	token, err := graph.ResourceToken(ctx, r.caller, userToken, resourceID)
	if err != nil {
		return "", err
	}
	r.cache.Add(key, token)
	return token, nil
}

// Forget drops the tenant's cached resource tokens. They were fetched with
// the previous user token and must not outlive a re-authentication.
func (r *Resolver) Forget(tenantID string) {
	prefix := tenantID + "|"
	for _, key := range r.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Remove(key)
		}
	}
}
