package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/HyphaGroup/adgate/internal/auth"
	"github.com/HyphaGroup/adgate/internal/config"
	"github.com/HyphaGroup/adgate/internal/graph"
	"github.com/HyphaGroup/adgate/internal/logger"
	"github.com/HyphaGroup/adgate/internal/metrics"
	"github.com/HyphaGroup/adgate/internal/session"
	"github.com/HyphaGroup/adgate/internal/tokens"
)

// Version is reported by initialize and the MCP implementation info
var Version = "0.1.0"

// Server wires the session store, the upstream client and the tool set
// behind the HTTP, WebSocket and MCP transports.
type Server struct {
	cfg        *config.Config
	sessions   *session.Store
	upstream   graph.Caller
	fallback   *tokens.Resolver
	registry   *Registry
	dispatcher *Dispatcher
	authStore  auth.TokenValidator // nil when gateway tokens are not required
	limiter    *auth.RateLimiter   // nil when rate limiting is disabled
	sdk        *sdkServers
}

// ServerConfig holds the collaborators of a Server
type ServerConfig struct {
	Config    *config.Config
	Sessions  *session.Store
	Upstream  graph.Caller
	Fallback  *tokens.Resolver
	AuthStore auth.TokenValidator
	Limiter   *auth.RateLimiter
}

// NewServer creates a new gateway server instance
func NewServer(sc ServerConfig) *Server {
	cfg := sc.Config
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:       cfg,
		sessions:  sc.Sessions,
		upstream:  sc.Upstream,
		fallback:  sc.Fallback,
		registry:  NewRegistry(),
		authStore: sc.AuthStore,
		limiter:   sc.Limiter,
	}
	s.dispatcher = NewDispatcher(s.registry, s.sessions)
	s.sdk = newSDKServers(s.dispatcher, sdkCacheSize)

	// Register all tools with the registry
	s.registerAllTools(s.registry)

	return s
}

// Dispatcher returns the tool dispatcher
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Registry returns the tool registry
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler builds the HTTP routes of the gateway
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	// Health endpoints - no authentication required
	r.Get("/health", s.handleHealthCheck)
	r.Get("/ready", s.handleReadinessCheck)

	// Metrics endpoint - no authentication required (Prometheus scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.authStore != nil {
			r.Use(auth.Middleware(s.authStore))
		}
		// after auth, so the limit applies per token
		if s.limiter != nil {
			r.Use(auth.RateLimitMiddleware(s.limiter))
		}

		r.Post("/auth", s.handleAuth)
		r.Post("/select-account", s.handleSelectAccount)
		r.Get("/tools", s.handleListTools)

		r.Group(func(r chi.Router) {
			r.Use(s.requireTenantAccess)
			r.Delete("/sessions/{tenantID}", s.handleLogout)
			r.Post("/call/{tenantID}", s.handleCall)
			r.Get("/ws/{tenantID}", s.handleWebSocket)
			r.Handle("/mcp/{tenantID}", s.sdk.handler())
		})
	})

	return r
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("🚀 adgate listening on %s", addr)
		logger.Printf("💚 Health check: %s/health", s.cfg.Server.PublicURL)
		logger.Printf("📊 Metrics: %s/metrics", s.cfg.Server.PublicURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestID generates or propagates X-Request-ID
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), logger.ContextKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.DebugContext(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// requireTenantAccess rejects gateway tokens scoped to another tenant
func (s *Server) requireTenantAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")
		if s.authStore != nil && !auth.FromContext(r.Context()).CanAccessTenant(tenantID) {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"success": false,
				"error":   "token may not act for tenant " + tenantID,
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(logger.WithTenant(r.Context(), tenantID)))
	})
}

// handleHealthCheck is a basic liveness check
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleReadinessCheck reports readiness with the number of live sessions
func (s *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	active := s.sessions.ActiveCount()
	metrics.SetActiveSessions(active)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ready",
		"activeSessions": active,
		"tools":          len(s.registry.Tools()),
	})
}
