// Package session keeps per-tenant credentials and account selection in
// process memory.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/HyphaGroup/adgate/internal/validation"
)

var (
	// ErrSessionNotFound is returned when a tenant has no live session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoResourceSelected is returned when an account-scoped operation runs
	// before an ad account has been selected.
	ErrNoResourceSelected = errors.New("no ad account selected; call select_ad_account first")
)

// AdAccount is the bound resource handle for a session.
type AdAccount struct {
	// ID is the prefixed account id, e.g. "act_123".
	ID string `json:"id"`
}

// Edge returns the upstream path for a connection of the account, such as
// "act_123/campaigns".
func (a AdAccount) Edge(name string) string {
	return a.ID + "/" + name
}

// ResourceSummary is one entry of the tenant's available ad accounts.
type ResourceSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       int    `json:"status"`
	Currency     string `json:"currency"`
	TimezoneName string `json:"timezoneName"`
}

// View is a read-only copy of a session handed to callers.
type View struct {
	Credentials  Credentials
	Account      *AdAccount
	Resources    []ResourceSummary
	LastActivity time.Time
}

type session struct {
	credentials  Credentials
	account      *AdAccount
	resources    []ResourceSummary
	lastActivity time.Time
}

func (s *session) view() View {
	v := View{
		Credentials:  s.credentials,
		LastActivity: s.lastActivity,
	}
	if s.account != nil {
		a := *s.account
		v.Account = &a
	}
	if s.resources != nil {
		v.Resources = append([]ResourceSummary(nil), s.resources...)
	}
	return v
}

// Option configures a Store
type Option func(*Store)

// WithTimeout sets the idle timeout. Zero disables expiry.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithExpireHook registers fn to be called with the tenant id of every
// session dropped for inactivity.
func WithExpireHook(fn func(tenantID string)) Option {
	return func(s *Store) { s.onExpire = fn }
}

// Store owns every tenant session. It is the only mutator of session state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	locks    *TenantLockMap

	timeout  time.Duration
	now      func() time.Time
	onExpire func(tenantID string)
}

// NewStore creates an empty session store
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*session),
		locks:    NewTenantLockMap(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeout returns the configured idle timeout.
func (s *Store) Timeout() time.Duration {
	return s.timeout
}

func (s *Store) lookup(tenantID string) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[tenantID]
}

func (s *Store) put(tenantID string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tenantID] = sess
}

func (s *Store) drop(tenantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[tenantID]
	delete(s.sessions, tenantID)
	return ok
}

func (s *Store) expired(sess *session, now time.Time) bool {
	return s.timeout > 0 && now.Sub(sess.lastActivity) > s.timeout
}

// Create validates creds and installs a fresh session for creds.TenantID,
// replacing any previous session for that tenant. When creds carries a
// selectedResourceId the account is bound in the same step.
func (s *Store) Create(creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	s.locks.Lock(creds.TenantID)
	defer s.locks.Unlock(creds.TenantID)

	sess := &session{
		credentials:  creds,
		lastActivity: s.now(),
	}
	if creds.SelectedResourceID != "" {
		bind(sess, creds.SelectedResourceID)
	}
	s.put(creds.TenantID, sess)
	return nil
}

// Get returns the tenant's session and refreshes its activity time. A
// session idle for longer than the timeout is deleted and reported missing.
func (s *Store) Get(tenantID string) (View, bool) {
	if s.lookup(tenantID) == nil {
		return View{}, false
	}

	s.locks.Lock(tenantID)
	defer s.locks.Unlock(tenantID)

	sess := s.lookup(tenantID)
	if sess == nil {
		return View{}, false
	}

	now := s.now()
	if s.expired(sess, now) {
		s.drop(tenantID)
		s.notifyExpired(tenantID)
		return View{}, false
	}

	sess.lastActivity = now
	return sess.view(), true
}

// Remove deletes the tenant's session and reports whether one existed.
func (s *Store) Remove(tenantID string) bool {
	if s.lookup(tenantID) == nil {
		return false
	}

	s.locks.Lock(tenantID)
	defer s.locks.Unlock(tenantID)
	return s.drop(tenantID)
}

// SelectResource binds an ad account to the tenant's session. A bare numeric
// id is normalized to its act_ form.
func (s *Store) SelectResource(tenantID, resourceID string) (AdAccount, error) {
	if strings.TrimSpace(resourceID) == "" {
		return AdAccount{}, &ValidationError{Field: "resourceId", Message: "resourceId is required"}
	}
	if s.lookup(tenantID) == nil {
		return AdAccount{}, ErrSessionNotFound
	}

	s.locks.Lock(tenantID)
	defer s.locks.Unlock(tenantID)

	sess := s.lookup(tenantID)
	now := s.now()
	if sess == nil {
		return AdAccount{}, ErrSessionNotFound
	}
	if s.expired(sess, now) {
		s.drop(tenantID)
		s.notifyExpired(tenantID)
		return AdAccount{}, ErrSessionNotFound
	}

	bind(sess, resourceID)
	sess.lastActivity = now
	return *sess.account, nil
}

func bind(sess *session, resourceID string) {
	id := validation.NormalizeAccountID(resourceID)
	sess.credentials.SelectedResourceID = id
	sess.account = &AdAccount{ID: id}
}

// CacheResources stores the tenant's available accounts until the next
// re-authentication.
func (s *Store) CacheResources(tenantID string, resources []ResourceSummary) error {
	if s.lookup(tenantID) == nil {
		return ErrSessionNotFound
	}

	s.locks.Lock(tenantID)
	defer s.locks.Unlock(tenantID)

	sess := s.lookup(tenantID)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.resources = append([]ResourceSummary(nil), resources...)
	return nil
}

// SweepExpired deletes every session idle for longer than the timeout and
// returns how many were removed. It does nothing when expiry is disabled.
func (s *Store) SweepExpired() int {
	if s.timeout <= 0 {
		return 0
	}

	s.mu.RLock()
	tenants := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		tenants = append(tenants, id)
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range tenants {
		s.locks.Lock(id)
		// Re-check under the tenant lock; the session may have been touched
		// or replaced since the snapshot.
		if sess := s.lookup(id); sess != nil && s.expired(sess, s.now()) {
			s.drop(id)
			removed++
			s.notifyExpired(id)
		}
		s.locks.Unlock(id)
	}
	return removed
}

// ActiveCount returns the number of sessions currently held.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) notifyExpired(tenantID string) {
	if s.onExpire != nil {
		s.onExpire(tenantID)
	}
}
