// Package registry implements the hub's membership layer: the thread-safe
// set of registered proxies, the pass-through hub configuration document,
// the pending new-session counter, and a liveness monitor that tracks
// proxy health without evicting anything.
//
// # Overview
//
// The registry is the shared mutable state of the hub. Registration
// handlers write to it, the status engine reads from it, and both happen
// concurrently. The registry therefore exposes only point-in-time reads:
// AllProxies returns a copy of the current membership, Configuration a
// copy of the configuration document. Two consecutive reads may observe
// different membership; callers that read several facets in a row get a
// best-effort, not transactional, view. That is a deliberate property of
// the system, not an omission.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│             Registry                │
//	├─────────────────────────────────────┤
//	│  proxies: ordered []*grid.Proxy     │
//	│  config: map[string]any (frozen)    │
//	│  pending: new-session counter       │
//	│  mu: RWMutex for thread safety      │
//	├─────────────────────────────────────┤
//	│  writers: register / deregister     │
//	│  readers: status queries, monitor   │
//	└─────────────────────────────────────┘
//
// # Concurrency Model
//
//   - Read operations use RLock for parallel access
//   - Write operations use Lock for exclusive access
//   - All returned collections are copies
//   - No locks held during external calls
//
// # Liveness Monitoring
//
// The Monitor polls each registered proxy's /health endpoint on an
// interval and records per-proxy status. A proxy is marked unhealthy
// after a configurable number of consecutive failures and recovers on
// the next success. Monitoring never removes a proxy from the registry:
// the status API deliberately reports nodes that have gone dark but are
// still registered.
//
// # See Also
//
// Related packages:
//   - internal/grid: the proxy and slot types tracked here
//   - internal/status: the read side, built on AllProxies and friends
package registry
