// Package registry provides the hub's membership and configuration state.
// See doc.go for complete package documentation.
package registry

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/dreamware/gridhub/internal/grid"
)

// Registry tracks the proxies registered with the hub, the hub's
// pass-through configuration document, and the live count of pending
// new-session requests.
//
// The registry is the one piece of shared mutable state in the hub.
// Registration and deregistration mutate it while status queries iterate
// it, so every accessor returns a copy taken under the read lock.
//
// Concurrency Model:
//   - Read operations use RLock for parallel access
//   - Write operations use Lock for exclusive access
//   - Returned slices and maps are copies; the proxies they point at are
//     shared and safe to read concurrently
//   - Consecutive reads are independent point-in-time views; no
//     cross-read snapshot isolation is provided
type Registry struct {
	// config is the hub configuration document, frozen at construction.
	// The registry never interprets it; it is pass-through data for the
	// status API.
	config map[string]any

	// proxies holds the registered proxies in registration order.
	// Order matters: the status API reports nodes in this order.
	proxies []*grid.Proxy

	// pending counts new-session requests currently waiting for a slot.
	pending int

	// mu protects proxies and pending.
	mu sync.RWMutex
}

// New creates a registry carrying the given configuration document.
// A nil config is treated as empty.
func New(config map[string]any) *Registry {
	if config == nil {
		config = map[string]any{}
	}
	return &Registry{config: config}
}

// Configuration returns a copy of the hub configuration document.
// Top-level entries are copied; nested values are shared and must be
// treated as read-only.
func (r *Registry) Configuration() map[string]any {
	out := make(map[string]any, len(r.config))
	for k, v := range r.config {
		out[k] = v
	}
	return out
}

// NewSessionRequestCount returns the number of new-session requests
// currently pending. The value is live and may change between calls.
func (r *Registry) NewSessionRequestCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending
}

// AddNewSessionRequest records a new-session request entering the queue.
func (r *Registry) AddNewSessionRequest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending++
}

// RemoveNewSessionRequest records a new-session request leaving the
// queue. The counter never goes below zero.
func (r *Registry) RemoveNewSessionRequest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending > 0 {
		r.pending--
	}
}

// Add registers a proxy. A proxy registering with a host that is already
// present replaces the previous registration in place, keeping its
// position in the ordering; otherwise the proxy is appended.
func (r *Registry) Add(p *grid.Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := slices.IndexFunc(r.proxies, func(q *grid.Proxy) bool { return q.Host() == p.Host() })
	if idx >= 0 {
		r.proxies[idx] = p
		return
	}
	r.proxies = append(r.proxies, p)
}

// Remove deregisters the proxy with the given host. It reports whether a
// proxy was actually removed.
func (r *Registry) Remove(host string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := slices.IndexFunc(r.proxies, func(q *grid.Proxy) bool { return q.Host() == host })
	if idx < 0 {
		return false
	}
	r.proxies = append(r.proxies[:idx], r.proxies[idx+1:]...)
	return true
}

// AllProxies returns the registered proxies in registration order.
// The slice is a point-in-time copy: membership changes after the call
// do not affect it, but slot occupancy on the shared proxies may still
// change underneath the caller.
func (r *Registry) AllProxies() []*grid.Proxy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*grid.Proxy(nil), r.proxies...)
}

// Count returns the number of registered proxies.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.proxies)
}
