package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/gridhub/internal/grid"
)

// TestParseSlots tests slot spec expansion.
func TestParseSlots(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantCount int
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "single browser",
			spec:      "chrome:3",
			wantCount: 3,
			wantNames: []string{"chrome", "chrome", "chrome"},
		},
		{
			name:      "multiple browsers",
			spec:      "chrome:2,firefox:1",
			wantCount: 3,
			wantNames: []string{"chrome", "chrome", "firefox"},
		},
		{
			name:      "whitespace tolerated",
			spec:      " chrome : 1 , firefox : 1 ",
			wantCount: 2,
			wantNames: []string{"chrome", "firefox"},
		},
		{
			name:    "missing count",
			spec:    "chrome",
			wantErr: true,
		},
		{
			name:    "zero count",
			spec:    "chrome:0",
			wantErr: true,
		},
		{
			name:    "negative count",
			spec:    "chrome:-2",
			wantErr: true,
		},
		{
			name:    "empty browser",
			spec:    ":3",
			wantErr: true,
		},
		{
			name:    "empty spec",
			spec:    "",
			wantErr: true,
		},
		{
			name:    "only separators",
			spec:    ", ,",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := parseSlots(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, slots, tt.wantCount)
			for i, want := range tt.wantNames {
				name, ok := slots[i].Capabilities.BrowserName()
				require.True(t, ok)
				assert.Equal(t, want, name)
			}
		})
	}
}

// TestRegisterWithRetry verifies the node keeps retrying until the hub
// accepts, and sends the expected registration payload.
func TestRegisterWithRetry(t *testing.T) {
	var calls atomic.Int32
	var got grid.RegisterRequest

	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fail the first two attempts to exercise the retry loop
		if calls.Add(1) <= 2 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hub.Close()

	req := grid.RegisterRequest{
		Proxy: grid.ProxyInfo{
			Host:  "http://n1:5555",
			Slots: []grid.SlotInfo{{Capabilities: grid.Capability{"browserName": "chrome"}}},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := registerWithRetry(ctx, hub.URL, req, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "http://n1:5555", got.Proxy.Host)
	require.Len(t, got.Proxy.Slots, 1)
}

// TestRegisterWithRetryCancel verifies the retry loop respects context
// cancellation instead of burning all its attempts.
func TestRegisterWithRetryCancel(t *testing.T) {
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "never ready", http.StatusServiceUnavailable)
	}))
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := registerWithRetry(ctx, hub.URL, grid.RegisterRequest{}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
