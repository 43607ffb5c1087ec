// Package grid provides the shared domain types for the gridhub test-execution
// hub: capability sets, execution slots, proxies (registered nodes), and the
// HTTP/JSON wire protocol nodes use to announce themselves.
//
// # Overview
//
// The grid package is the vocabulary of the system. Every other package —
// the registry that tracks membership, the status engine that reports
// utilization, the hub and node binaries — speaks in terms of the types
// defined here.
//
// # Architecture
//
// The hub owns a registry of proxies; each proxy contributes slots:
//
//	              ┌──────────────┐
//	              │     Hub      │
//	              │              │
//	              │ - Registry   │
//	              │ - Status API │
//	              └──────┬───────┘
//	                     │
//	      ┌──────────────┼──────────────┐
//	      │              │              │
//	┌─────▼─────┐ ┌─────▼─────┐ ┌─────▼─────┐
//	│  Proxy 1  │ │  Proxy 2  │ │  Proxy 3  │
//	│           │ │           │ │           │
//	│ Slots:    │ │ Slots:    │ │ Slots:    │
//	│ chrome x5 │ │ chrome x2 │ │ firefox x3│
//	└───────────┘ └───────────┘ └───────────┘
//
// # Core Components
//
// Capability: key/value attributes describing a slot's execution environment.
//   - Stringly typed by design; callers supply arbitrary keys
//   - BrowserName is the one key with defined accessor semantics
//
// Slot: one concurrent test-execution capacity unit on a proxy.
//   - Tagged with a capability set fixed at registration
//   - Occupied while it holds an active session, free otherwise
//   - Thread-safe for concurrent reserve/release/observe
//
// Proxy: a registered execution node.
//   - Identified by its original registration host
//   - Holds an ordered, immutable collection of slots
//
// # Wire Protocol
//
// Nodes announce themselves over HTTP/JSON:
//
// Registration (POST /grid/register):
//   - Node sends its public host and slot capability list
//   - Re-registration with the same host replaces the previous entry
//
// Deregistration (POST /grid/deregister):
//   - Node sends its host; the hub drops the matching proxy
//
// The PostJSON and GetJSON helpers implement the client side with a
// shared 5 second timeout and context support.
//
// # Concurrency Model
//
// Slots are the only mutable type and guard their session pointer with a
// mutex. Proxies are immutable after construction, so they can be read
// from any number of goroutines while the registry mutates membership
// around them.
//
// # See Also
//
// Related packages:
//   - internal/registry: membership tracking and liveness monitoring
//   - internal/status: the status-query engine built on these types
package grid
