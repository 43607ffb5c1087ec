package status

import "github.com/dreamware/gridhub/internal/grid"

// Derived field names understood by the aggregator, alongside whatever
// top-level keys the hub configuration document carries.
const (
	FieldNewSessionRequestCount = "newSessionRequestCount"
	FieldNodes                  = "nodes"
	FieldBrowsers               = "browsers"
)

// Registry is the read-only view of hub state the aggregator consumes.
// Implementations must be safe for concurrent use and may be mutated by
// other parts of the hub while a snapshot is being built; each method
// call is an independent point-in-time read.
type Registry interface {
	// Configuration returns the hub's pass-through configuration document.
	Configuration() map[string]any

	// NewSessionRequestCount returns the live pending-session counter.
	NewSessionRequestCount() int

	// AllProxies returns the registered proxies in registration order.
	AllProxies() []*grid.Proxy
}

// BuildSnapshot assembles the status snapshot for the selected fields:
// the configuration entries, the pending new-session counter, the node
// list and the per-browser utilization, each included only when
// selected. Node and browser data are computed lazily — an unselected
// field costs no registry traversal.
//
// The snapshot is built in a scratch map and returned only when every
// selected field succeeded. On error the caller gets nothing: partial
// snapshots are never exposed.
func BuildSnapshot(reg Registry, fields FieldSet) (map[string]any, error) {
	snapshot := make(map[string]any)

	for key, value := range reg.Configuration() {
		if fields.Has(key) {
			snapshot[key] = value
		}
	}

	if fields.Has(FieldNewSessionRequestCount) {
		snapshot[FieldNewSessionRequestCount] = reg.NewSessionRequestCount()
	}

	if fields.Has(FieldNodes) {
		snapshot[FieldNodes] = SummarizeNodes(reg.AllProxies())
	}

	if fields.Has(FieldBrowsers) {
		browsers, err := ComputeUtilization(reg.AllProxies())
		if err != nil {
			return nil, err
		}
		snapshot[FieldBrowsers] = browsers
	}

	return snapshot, nil
}
