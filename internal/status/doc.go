// Package status implements the hub's read-only status-query endpoint:
// field selection, slot accounting, node summaries, and the aggregation
// that assembles a filtered snapshot of hub configuration and capacity.
//
// # Overview
//
// Clients (dashboards, health checks, autoscalers) ask the hub what it
// knows: its configuration document, the number of pending new-session
// requests, the registered nodes, and per-browser slot utilization. The
// caller names the fields it wants; the engine computes only those and
// returns them in a success envelope.
//
// # Data Flow
//
//	request ──► FieldSet (query param or body, query wins)
//	                │
//	                ▼
//	         BuildSnapshot ──► configuration entries
//	                       ──► newSessionRequestCount
//	                       ──► nodes     (SummarizeNodes, lazy)
//	                       ──► browsers  (ComputeUtilization, lazy)
//	                │
//	                ▼
//	        {"success":true, ...selected fields}
//
// # Field Selection
//
// The filter comes from the "configuration" query parameter (a comma
// separated list) or, failing that, from a "configuration" array in the
// JSON request body. An absent filter and an explicitly empty one mean
// the same thing: return everything. Callers cannot request zero fields.
// Unknown field names match nothing and are silently dropped; they are
// not an error.
//
// # Error Model
//
// Failures travel on two distinct tiers:
//
// Body tier: any failure while reading the registry or computing a
// derived field aborts the whole aggregation. The response is still
// HTTP 200 with {"success":false,"msg":...} and nothing else — partial
// snapshots are discarded, never leaked. Status-check clients branch on
// the body's success field, not on the transport status.
//
// Transport tier: a request body that is not valid JSON is not
// converted into a success:false body. The handler returns the error
// (wrapping ErrMalformedRequest) to the surrounding server, which owns
// the resulting non-200 status.
//
// # Consistency
//
// The snapshot's facets are independent point-in-time reads against the
// live registry, taken without any cross-read lock. A registration or
// slot change mid-aggregation can make the node list and the browser
// counts disagree; that best-effort view is the documented contract.
// The engine never writes to the registry.
//
// # See Also
//
// Related packages:
//   - internal/registry: the concrete Registry this engine observes
//   - internal/grid: proxy, slot and capability types
package status
