package grid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// CapBrowserName is the capability key naming the browser a slot runs.
// Lookups through Capability.BrowserName tolerate any key casing because
// the value originates from caller-supplied registration payloads.
const CapBrowserName = "browserName"

// Capability is the key/value attribute set describing a slot's execution
// environment. Keys and values are caller-supplied and deliberately loose;
// only the browser-name key has defined accessor semantics.
type Capability map[string]any

// Get returns the value for key, matching the key case-insensitively.
// The second return reports whether the key was present at all.
func (c Capability) Get(key string) (any, bool) {
	if v, ok := c[key]; ok {
		return v, true
	}
	for k, v := range c {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// BrowserName returns the slot's browser-name capability as a string.
// The second return is false when the capability is missing or not a
// string; callers decide whether that is an error (the status engine
// treats it as one).
func (c Capability) BrowserName() (string, bool) {
	v, ok := c.Get(CapBrowserName)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Session marks an active occupancy of a slot by a running test.
// The hub only cares about presence; the ID exists for logs and debugging.
type Session struct {
	ID string
}

// Slot is one concurrent test-execution capacity unit on a proxy.
// A slot is occupied while it holds an active session and free otherwise.
//
// Thread safety: the session pointer is guarded by a mutex so the slot can
// be reserved, released, and observed concurrently. The capability set is
// fixed at construction and read without locking.
type Slot struct {
	session *Session
	caps    Capability
	mu      sync.Mutex
}

// NewSlot creates a free slot tagged with the given capability set.
func NewSlot(caps Capability) *Slot {
	return &Slot{caps: caps}
}

// Capabilities returns the slot's capability set. The map is shared, not
// copied; callers must treat it as read-only.
func (s *Slot) Capabilities() Capability {
	return s.caps
}

// ActiveSession returns the session currently occupying the slot, or nil
// when the slot is free.
func (s *Slot) ActiveSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Reserve occupies the slot with the given session. It fails when the
// slot is already occupied, leaving the existing session in place.
func (s *Slot) Reserve(sess *Session) error {
	if sess == nil {
		return errors.New("cannot reserve a slot with a nil session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return fmt.Errorf("slot already occupied by session %s", s.session.ID)
	}
	s.session = sess
	return nil
}

// Release frees the slot. Releasing a free slot is a no-op.
func (s *Slot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// Proxy is a registered execution node: its original registration host and
// the ordered collection of slots it contributes. Proxies are immutable
// after construction; only their slots carry mutable state.
type Proxy struct {
	host  string
	slots []*Slot
}

// NewProxy creates a proxy for the given registration host and slots.
func NewProxy(host string, slots []*Slot) *Proxy {
	return &Proxy{host: host, slots: slots}
}

// Host returns the proxy's original registration host.
func (p *Proxy) Host() string {
	return p.host
}

// Slots returns the proxy's slots in registration order. The returned
// slice is a copy so callers can iterate without racing membership
// changes; the slots themselves are shared.
func (p *Proxy) Slots() []*Slot {
	return append([]*Slot(nil), p.slots...)
}

// SlotInfo is the wire form of a slot: its capability set.
type SlotInfo struct {
	Capabilities Capability `json:"capabilities"`
}

// ProxyInfo is the wire form of a proxy registration.
type ProxyInfo struct {
	Host  string     `json:"host"`
	Slots []SlotInfo `json:"slots"`
}

// Build converts the wire form into a runtime proxy with free slots.
func (pi ProxyInfo) Build() *Proxy {
	slots := make([]*Slot, 0, len(pi.Slots))
	for _, si := range pi.Slots {
		slots = append(slots, NewSlot(si.Capabilities))
	}
	return NewProxy(pi.Host, slots)
}

// RegisterRequest announces a node and its slots to the hub.
type RegisterRequest struct {
	Proxy ProxyInfo `json:"proxy"`
}

// DeregisterRequest removes a node from the hub by host.
type DeregisterRequest struct {
	Host string `json:"host"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON posts body as JSON to url and, when out is non-nil, decodes the
// response body into it. Non-2xx responses are reported as errors.
func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON fetches url and decodes the JSON response into out.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
