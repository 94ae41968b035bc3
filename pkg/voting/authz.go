package voting

import "sync"

// RoleMap is a static grant table implementing Authorizer.
type RoleMap struct {
	mu     sync.RWMutex
	grants map[string]map[Permission]bool
}

// NewRoleMap creates an empty grant table.
func NewRoleMap() *RoleMap {
	return &RoleMap{grants: make(map[string]map[Permission]bool)}
}

// Grant allows the caller to perform the gated operation.
func (r *RoleMap) Grant(caller string, permission Permission) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.grants[caller] == nil {
		r.grants[caller] = make(map[Permission]bool)
	}
	r.grants[caller][permission] = true
}

// Revoke removes a previously granted permission.
func (r *RoleMap) Revoke(caller string, permission Permission) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.grants[caller], permission)
}

// Authorize implements Authorizer.
func (r *RoleMap) Authorize(caller string, permission Permission) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.grants[caller][permission]
}

// AllowAll authorizes every caller for every permission. Intended for tests
// and single-operator deployments.
type AllowAll struct{}

// Authorize implements Authorizer.
func (AllowAll) Authorize(string, Permission) bool { return true }
