package session

import (
	"sync"
)

type tenantLock struct {
	mu   sync.Mutex
	refs int
}

// TenantLockMap provides a per-tenant mutex so that create, select, touch and
// remove for one tenant never interleave, while different tenants proceed in
// parallel.
//
// Entries are reference counted and dropped once no goroutine holds or waits
// on them, so the map only ever holds tenants with an operation in flight.
type TenantLockMap struct {
	mu    sync.Mutex
	locks map[string]*tenantLock
}

// NewTenantLockMap creates a new tenant lock map
func NewTenantLockMap() *TenantLockMap {
	return &TenantLockMap{locks: make(map[string]*tenantLock)}
}

func (m *TenantLockMap) acquireRef(tenantID string) *tenantLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[tenantID]
	if !ok {
		l = &tenantLock{}
		m.locks[tenantID] = l
	}
	l.refs++
	return l
}

// Lock acquires the exclusive lock for a tenant
func (m *TenantLockMap) Lock(tenantID string) {
	m.acquireRef(tenantID).mu.Lock()
}

// Unlock releases the lock for a tenant. It must pair with a Lock.
func (m *TenantLockMap) Unlock(tenantID string) {
	m.mu.Lock()
	l, ok := m.locks[tenantID]
	if !ok {
		m.mu.Unlock()
		panic("session: unlock of unlocked tenant " + tenantID)
	}
	l.refs--
	if l.refs == 0 {
		delete(m.locks, tenantID)
	}
	m.mu.Unlock()
	l.mu.Unlock()
}

// Len returns the number of tenants with a held or awaited lock.
func (m *TenantLockMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
