package status

import (
	"fmt"
	"strings"

	"github.com/dreamware/gridhub/internal/grid"
)

// BrowserSlots reports slot capacity for one browser name: how many
// slots across the grid carry that browser and how many are currently
// free. free is always ≤ total and total is at least 1 — a browser only
// appears once a slot for it has been seen.
type BrowserSlots struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
	Free  int    `json:"free"`
}

// ComputeUtilization walks every slot of every proxy once and buckets
// capacity by browser name. Names are normalized to uppercase because
// capability values are caller-supplied and vary in case. Buckets appear
// in first-seen order so identical registries produce identical output.
//
// A slot with no usable browser-name capability fails the whole
// computation: the caller surfaces it as an aggregation error rather
// than inventing a nameless bucket or silently skipping capacity.
func ComputeUtilization(proxies []*grid.Proxy) ([]BrowserSlots, error) {
	var (
		browsers []BrowserSlots
		index    = make(map[string]int)
	)

	for _, proxy := range proxies {
		for _, slot := range proxy.Slots() {
			name, ok := slot.Capabilities().BrowserName()
			if !ok {
				return nil, fmt.Errorf("proxy %s has a slot without a %s capability",
					proxy.Host(), grid.CapBrowserName)
			}
			name = strings.ToUpper(name)

			i, seen := index[name]
			if !seen {
				i = len(browsers)
				index[name] = i
				browsers = append(browsers, BrowserSlots{Name: name})
			}
			browsers[i].Total++
			if slot.ActiveSession() == nil {
				browsers[i].Free++
			}
		}
	}

	if browsers == nil {
		browsers = []BrowserSlots{}
	}
	return browsers, nil
}
