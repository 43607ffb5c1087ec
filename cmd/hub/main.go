// Package main implements the gridhub hub service, which tracks registered
// execution nodes and answers status queries about grid capacity.
//
// The hub is the coordinating process of the grid, responsible for:
//   - Accepting node registrations and deregistrations
//   - Holding the pass-through hub configuration document
//   - Serving the status-query API used by dashboards and autoscalers
//   - Optionally monitoring node liveness
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                 Hub                      │
//	├─────────────────────────────────────────┤
//	│  HTTP API:                              │
//	│    /grid/api/hub   - Status query       │
//	│    /grid/register  - Node registration  │
//	│    /grid/deregister- Node removal       │
//	│    /health         - Health check       │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    Registry       - Proxy membership    │
//	│    status.Handler - Snapshot engine     │
//	│    Monitor        - Liveness tracking   │
//	└─────────────────────────────────────────┘
//
// Configuration:
//   - HUB_ADDR: Listen address (default: ":4444")
//   - HUB_CONFIG: Path to a YAML hub configuration document (optional)
//   - HUB_LOG_LEVEL: zerolog level (default: "info")
//   - HUB_MONITOR_INTERVAL: Liveness check interval, 0 disables (default: 0)
//
// Example usage:
//
//	# Start hub
//	HUB_ADDR=:4444 HUB_CONFIG=hub.yaml ./hub
//
//	# Query utilization
//	curl 'localhost:4444/grid/api/hub?configuration=browsers'
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dreamware/gridhub/internal/grid"
	"github.com/dreamware/gridhub/internal/registry"
	"github.com/dreamware/gridhub/internal/status"
)

// config is the hub's process configuration, read from the environment.
type config struct {
	Addr            string        `env:"HUB_ADDR" envDefault:":4444"`
	ConfigPath      string        `env:"HUB_CONFIG"`
	LogLevel        string        `env:"HUB_LOG_LEVEL" envDefault:"info"`
	MonitorInterval time.Duration `env:"HUB_MONITOR_INTERVAL" envDefault:"0"`
}

// defaultHubConfig returns the configuration document served when no
// file is given. The keys mirror what status clients conventionally ask
// for; the hub itself never interprets them.
func defaultHubConfig() map[string]any {
	return map[string]any{
		"timeout":               1800,
		"browserTimeout":        0,
		"newSessionWaitTimeout": -1,
		"servlets":              []string{},
		"port":                  4444,
	}
}

// loadHubConfig builds the hub configuration document: the defaults,
// overlaid with the YAML file at path when one is given.
func loadHubConfig(path string) (map[string]any, error) {
	doc := defaultHubConfig()
	if path == "" {
		return doc, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hub config %s: %w", path, err)
	}
	var overlay map[string]any
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parsing hub config %s: %w", path, err)
	}
	for k, v := range overlay {
		doc[k] = v
	}
	return doc, nil
}

// newLogger builds the hub's structured logger at the given level.
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger(), nil
}

// server wires the hub's HTTP handlers to the registry.
type server struct {
	registry *registry.Registry
	status   *status.Handler
	log      zerolog.Logger
}

func newServer(reg *registry.Registry, log zerolog.Logger) *server {
	return &server{
		registry: reg,
		status:   status.NewHandler(reg, log),
		log:      log,
	}
}

// transport adapts an error-returning handler to http.HandlerFunc.
// Handler errors are transport-tier failures (malformed request bodies,
// unreadable streams): they are logged and answered with a 500, never
// dressed up as a body-tier success:false envelope.
func (s *server) transport(h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// handleRegister accepts a node announcement and adds (or replaces) its
// proxy in the registry.
func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req grid.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Proxy.Host == "" {
		http.Error(w, "missing proxy host", http.StatusBadRequest)
		return
	}
	s.registry.Add(req.Proxy.Build())
	s.log.Info().Str("host", req.Proxy.Host).Int("slots", len(req.Proxy.Slots)).
		Msg("proxy registered")
	w.WriteHeader(http.StatusNoContent)
}

// handleDeregister removes a node from the registry by host.
func (s *server) handleDeregister(w http.ResponseWriter, r *http.Request) {
	var req grid.DeregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if !s.registry.Remove(req.Host) {
		http.Error(w, "unknown proxy host", http.StatusNotFound)
		return
	}
	s.log.Info().Str("host", req.Host).Msg("proxy deregistered")
	w.WriteHeader(http.StatusNoContent)
}

// buildMux wires the hub's routes.
func buildMux(s *server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/grid/api/hub", s.transport(s.status.Status))
	mux.HandleFunc("/grid/register", s.handleRegister)
	mux.HandleFunc("/grid/deregister", s.handleDeregister)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	doc, err := loadHubConfig(cfg.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading hub configuration")
	}

	reg := registry.New(doc)
	srv := newServer(reg, log)

	// Liveness monitoring is opt-in; the status API reports dead nodes
	// either way.
	if cfg.MonitorInterval > 0 {
		monitor := registry.NewMonitor(cfg.MonitorInterval, log)
		go monitor.Start(context.Background(), reg.AllProxies)
		defer monitor.Stop()
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildMux(srv),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("hub listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Info().Msg("hub stopped")
}
