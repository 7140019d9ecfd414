package testutil

import (
	"testing"

	"github.com/HyphaGroup/adgate/internal/session"
)

// CredentialsOption is a function that modifies Credentials for testing.
type CredentialsOption func(*session.Credentials)

// NewTestCredentials creates valid credentials for tenantID. The access
// token is "user-token-" + tenantID.
func NewTestCredentials(tenantID string, opts ...CredentialsOption) session.Credentials {
	creds := session.Credentials{
		ApplicationID:     "app-1",
		ApplicationSecret: "secret-1",
		AccessToken:       "user-token-" + tenantID,
		TenantID:          tenantID,
	}
	for _, opt := range opts {
		opt(&creds)
	}
	return creds
}

// WithAccessToken sets a specific user token.
func WithAccessToken(token string) CredentialsOption {
	return func(c *session.Credentials) {
		c.AccessToken = token
	}
}

// WithSelectedAccount binds an ad account at session creation.
func WithSelectedAccount(id string) CredentialsOption {
	return func(c *session.Credentials) {
		c.SelectedResourceID = id
	}
}

// MustCreateSession opens a session for tenantID in store.
func MustCreateSession(t *testing.T, store *session.Store, tenantID string, opts ...CredentialsOption) {
	t.Helper()
	if err := store.Create(NewTestCredentials(tenantID, opts...)); err != nil {
		t.Fatalf("Create(%s) error = %v", tenantID, err)
	}
}
