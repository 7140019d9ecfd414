package session

// Resolver answers which ad account a tenant is currently acting on. Every
// account-scoped tool goes through RequireAccount before touching upstream.
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver over store
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// BoundResource returns the selected account, or false when the tenant has
// no session or has not selected one.
func (r *Resolver) BoundResource(tenantID string) (AdAccount, bool) {
	view, ok := r.store.Get(tenantID)
	if !ok || view.Account == nil {
		return AdAccount{}, false
	}
	return *view.Account, true
}

// RequireAccount is BoundResource with distinguishable errors: a missing
// session yields ErrSessionNotFound and a missing selection yields
// ErrNoResourceSelected.
func (r *Resolver) RequireAccount(tenantID string) (AdAccount, error) {
	view, ok := r.store.Get(tenantID)
	if !ok {
		return AdAccount{}, ErrSessionNotFound
	}
	if view.Account == nil {
		return AdAccount{}, ErrNoResourceSelected
	}
	return *view.Account, nil
}
