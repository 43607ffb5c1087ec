// Package registry provides the hub's membership and configuration state.
// This file implements liveness monitoring for registered proxies.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/gridhub/internal/grid"
)

// Proxy status values reported by the monitor.
const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ProxyHealth tracks the liveness of a single registered proxy.
// Thread-safe: protected by the Monitor's mutex when accessed.
type ProxyHealth struct {
	LastCheck        time.Time // Timestamp of the last check attempt
	LastHealthy      time.Time // Timestamp of the last successful check
	Host             string    // Registration host of the proxy
	Status           string    // StatusUnknown, StatusHealthy or StatusUnhealthy
	ConsecutiveFails int       // Consecutive failed checks
}

// Monitor performs periodic liveness checks on all registered proxies.
// It only records status: a proxy that stops answering stays in the
// registry and keeps appearing in status reports, by the same rule the
// status API follows (disconnected-but-tracked nodes are still reported).
//
// Thread-safe: all methods are safe for concurrent access.
type Monitor struct {
	proxies     map[string]*ProxyHealth // Current health per proxy host
	httpClient  *http.Client            // Client for liveness probes
	checkFunc   func(host string) error // Probe function, injectable for tests
	onUnhealthy func(host string)       // Callback on healthy->unhealthy transition
	ctx         context.Context         // Internal context for shutdown
	cancel      context.CancelFunc      // Cancels ctx
	log         zerolog.Logger          // Structured monitor log
	interval    time.Duration           // Time between check rounds
	maxFailures int                     // Failures before marking unhealthy
	mu          sync.RWMutex            // Protects proxies map
	wg          sync.WaitGroup          // Waits for the check loop on Stop
}

// NewMonitor creates a monitor probing each proxy's /health endpoint
// every interval. Proxies are marked unhealthy after 3 consecutive
// failures and recover on the next success.
func NewMonitor(interval time.Duration, log zerolog.Logger) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		interval:    interval,
		maxFailures: 3,
		proxies:     make(map[string]*ProxyHealth),
		httpClient:  &http.Client{Timeout: 2 * time.Second},
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetOnUnhealthy sets the callback invoked (in its own goroutine) when a
// proxy transitions to unhealthy. Must be called before Start.
func (m *Monitor) SetOnUnhealthy(callback func(host string)) {
	m.onUnhealthy = callback
}

// SetCheckFunction overrides the default HTTP liveness probe.
// Must be called before Start; intended for tests.
func (m *Monitor) SetCheckFunction(checkFunc func(host string) error) {
	m.checkFunc = checkFunc
}

// Start runs the check loop until ctx or the monitor itself is canceled.
// The provider is called once per round for the current proxy set, so
// membership changes are picked up automatically. Blocks; run it in a
// goroutine.
func (m *Monitor) Start(ctx context.Context, provider func() []*grid.Proxy) {
	m.wg.Add(1)
	defer m.wg.Done()

	if ctx == nil {
		ctx = m.ctx
	}
	if m.checkFunc == nil {
		m.checkFunc = m.defaultHealthCheck
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", m.interval).Msg("proxy monitor started")

	// First round immediately, then on the ticker
	m.checkAll(provider())

	for {
		select {
		case <-ticker.C:
			m.checkAll(provider())
		case <-ctx.Done():
			m.log.Info().Msg("proxy monitor stopping")
			return
		case <-m.ctx.Done():
			m.log.Info().Msg("proxy monitor stopping")
			return
		}
	}
}

// Stop shuts the monitor down and waits for the check loop to exit.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

// checkAll probes every provided proxy and drops tracking entries for
// proxies that have deregistered since the last round.
func (m *Monitor) checkAll(proxies []*grid.Proxy) {
	current := make(map[string]bool, len(proxies))
	for _, p := range proxies {
		current[p.Host()] = true
		m.checkProxy(p)
	}

	m.mu.Lock()
	for host := range m.proxies {
		if !current[host] {
			delete(m.proxies, host)
			m.log.Debug().Str("host", host).Msg("proxy deregistered, dropped from monitoring")
		}
	}
	m.mu.Unlock()
}

// checkProxy probes a single proxy and updates its health record,
// firing the unhealthy callback on a state transition.
func (m *Monitor) checkProxy(p *grid.Proxy) {
	host := p.Host()

	m.mu.Lock()
	health, exists := m.proxies[host]
	if !exists {
		health = &ProxyHealth{
			Host:        host,
			Status:      StatusUnknown,
			LastCheck:   time.Now(),
			LastHealthy: time.Now(),
		}
		m.proxies[host] = health
	}
	m.mu.Unlock()

	// Probe without holding the lock
	err := m.checkFunc(host)

	m.mu.Lock()
	defer m.mu.Unlock()

	health.LastCheck = time.Now()

	if err != nil {
		health.ConsecutiveFails++
		m.log.Warn().Str("host", host).Int("fails", health.ConsecutiveFails).Err(err).
			Msg("proxy liveness check failed")

		if health.ConsecutiveFails >= m.maxFailures {
			previous := health.Status
			health.Status = StatusUnhealthy
			if previous != StatusUnhealthy && m.onUnhealthy != nil {
				m.log.Warn().Str("host", host).Msg("proxy marked unhealthy")
				go m.onUnhealthy(host)
			}
		}
		return
	}

	if health.Status == StatusUnhealthy {
		m.log.Info().Str("host", host).Msg("proxy recovered")
	}
	health.Status = StatusHealthy
	health.ConsecutiveFails = 0
	health.LastHealthy = time.Now()
}

// defaultHealthCheck performs an HTTP GET against the proxy's /health
// endpoint, accepting both full URLs and host:port registration hosts.
func (m *Monitor) defaultHealthCheck(host string) error {
	url := host
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		url = fmt.Sprintf("http://%s", host)
	}
	if !strings.HasSuffix(url, "/health") {
		url = strings.TrimRight(url, "/") + "/health"
	}

	resp, err := m.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("liveness probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("liveness probe returned status %d", resp.StatusCode)
	}
	return nil
}

// GetHealth returns a copy of the health record for the given host, or
// nil when the host is not being monitored.
func (m *Monitor) GetHealth(host string) *ProxyHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health, exists := m.proxies[host]
	if !exists {
		return nil
	}
	clone := *health
	return &clone
}

// IsHealthy reports whether the given host is currently healthy.
// Unmonitored hosts are reported as not healthy.
func (m *Monitor) IsHealthy(host string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health, exists := m.proxies[host]
	return exists && health.Status == StatusHealthy
}
