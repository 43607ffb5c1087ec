package status

import "github.com/dreamware/gridhub/internal/grid"

// NodeSummary identifies one registered node by its original
// registration host.
type NodeSummary struct {
	Host string `json:"host"`
}

// SummarizeNodes produces one entry per proxy in registry order. There
// is no deduplication and no liveness filtering: a node that stopped
// answering but is still registry-tracked is still reported.
func SummarizeNodes(proxies []*grid.Proxy) []NodeSummary {
	nodes := make([]NodeSummary, 0, len(proxies))
	for _, proxy := range proxies {
		nodes = append(nodes, NodeSummary{Host: proxy.Host()})
	}
	return nodes
}
