package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestResolveFieldSet tests filter resolution: query parameter
// precedence, body fallback, and the empty-set collapse.
func TestResolveFieldSet(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		body     *Request
		wantAll  bool
		wantHas  []string
		wantMiss []string
	}{
		{
			name:    "no sources selects everything",
			wantAll: true,
			wantHas: []string{"timeout", "nodes", "browsers", "anything"},
		},
		{
			name:     "query parameter list",
			query:    "timeout,servlets",
			wantHas:  []string{"timeout", "servlets"},
			wantMiss: []string{"nodes", "browsers"},
		},
		{
			name:     "query parameter elements are trimmed",
			query:    " timeout , nodes ",
			wantHas:  []string{"timeout", "nodes"},
			wantMiss: []string{"browsers"},
		},
		{
			name:     "query wins over body",
			query:    "nodes",
			body:     &Request{Configuration: []string{"browsers"}},
			wantHas:  []string{"nodes"},
			wantMiss: []string{"browsers"},
		},
		{
			name:     "body array used when query absent",
			body:     &Request{Configuration: []string{"browsers"}},
			wantHas:  []string{"browsers"},
			wantMiss: []string{"nodes", "timeout"},
		},
		{
			name:    "empty body array collapses to all",
			body:    &Request{Configuration: []string{}},
			wantAll: true,
			wantHas: []string{"timeout", "nodes", "browsers"},
		},
		{
			name:    "body without configuration collapses to all",
			body:    &Request{},
			wantAll: true,
			wantHas: []string{"timeout"},
		},
		{
			name:    "query of only separators collapses to all",
			query:   " , ,",
			wantAll: true,
			wantHas: []string{"timeout", "nodes"},
		},
		{
			name:     "unknown names are kept, matching nothing later",
			query:    "bogus,nodes",
			wantHas:  []string{"bogus", "nodes"},
			wantMiss: []string{"browsers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := ResolveFieldSet(tt.query, tt.body)

			assert.Equal(t, tt.wantAll, fields.All())
			for _, key := range tt.wantHas {
				assert.True(t, fields.Has(key), "expected %q to be selected", key)
			}
			for _, key := range tt.wantMiss {
				assert.False(t, fields.Has(key), "expected %q to not be selected", key)
			}
		})
	}
}
