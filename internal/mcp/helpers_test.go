package mcp

import (
	"testing"
	"time"

	"github.com/HyphaGroup/adgate/internal/config"
	"github.com/HyphaGroup/adgate/internal/session"
	"github.com/HyphaGroup/adgate/internal/testutil"
	"github.com/HyphaGroup/adgate/internal/tokens"
)

// newTestServer builds a Server over an in-memory store and the given
// upstream.
func newTestServer(t *testing.T, upstream *testutil.MockCaller) (*Server, *session.Store) {
	t.Helper()
	store := session.NewStore()
	fallback := tokens.NewResolver(upstream, store, 16, time.Minute)
	cfg := config.Default()
	cfg.Server.PublicURL = "https://gw.example.com"
	srv := NewServer(ServerConfig{
		Config:   cfg,
		Sessions: store,
		Upstream: upstream,
		Fallback: fallback,
	})
	return srv, store
}

func mustCreate(t *testing.T, store *session.Store, tenantID string) {
	t.Helper()
	testutil.MustCreateSession(t, store, tenantID)
}
