// Package main implements the gridhub node agent, which announces a pool
// of capability-tagged execution slots to the hub and answers liveness
// probes.
//
// The node is a worker in the grid, responsible for:
//   - Describing its slots (browser name and count) to the hub
//   - Re-registering with retries until the hub accepts it
//   - Responding to /health probes from the hub's monitor
//   - Deregistering on graceful shutdown
//
// Configuration:
//   - NODE_HOST: Public address the hub reports for this node (required)
//   - NODE_LISTEN: Listen address (default: ":5555")
//   - NODE_SLOTS: Slot spec, "browser:count[,browser:count...]" (default: "chrome:5")
//   - HUB_ADDR: Hub base URL (required)
//   - NODE_LOG_LEVEL: zerolog level (default: "info")
//
// Example usage:
//
//	NODE_HOST=http://10.0.0.5:5555 \
//	NODE_SLOTS=chrome:5,firefox:2 \
//	HUB_ADDR=http://localhost:4444 \
//	./node
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/dreamware/gridhub/internal/grid"
)

// config is the node agent's process configuration.
type config struct {
	Host     string `env:"NODE_HOST,required"`
	Listen   string `env:"NODE_LISTEN" envDefault:":5555"`
	Slots    string `env:"NODE_SLOTS" envDefault:"chrome:5"`
	HubAddr  string `env:"HUB_ADDR,required"`
	LogLevel string `env:"NODE_LOG_LEVEL" envDefault:"info"`
}

// parseSlots expands a slot spec like "chrome:5,firefox:2" into wire-form
// slots, one per unit of capacity, each tagged with its browser name.
func parseSlots(spec string) ([]grid.SlotInfo, error) {
	var slots []grid.SlotInfo
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		browser, countStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("slot spec %q: want browser:count", part)
		}
		browser = strings.TrimSpace(browser)
		if browser == "" {
			return nil, fmt.Errorf("slot spec %q: empty browser name", part)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count < 1 {
			return nil, fmt.Errorf("slot spec %q: bad count", part)
		}
		for i := 0; i < count; i++ {
			slots = append(slots, grid.SlotInfo{
				Capabilities: grid.Capability{grid.CapBrowserName: browser},
			})
		}
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("slot spec %q describes no slots", spec)
	}
	return slots, nil
}

// registerWithRetry announces the node to the hub, retrying with a flat
// backoff until the hub accepts or the context ends. The hub may simply
// not be up yet when a node starts.
func registerWithRetry(ctx context.Context, hubAddr string, req grid.RegisterRequest, log zerolog.Logger) error {
	url := strings.TrimRight(hubAddr, "/") + "/grid/register"
	var lastErr error
	for attempt := 1; attempt <= 10; attempt++ {
		lastErr = grid.PostJSON(ctx, url, req, nil)
		if lastErr == nil {
			log.Info().Str("hub", hubAddr).Int("slots", len(req.Proxy.Slots)).
				Msg("registered with hub")
			return nil
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Msg("hub registration failed")
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("registering with hub %s: %w", hubAddr, lastErr)
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", cfg.LogLevel)
		os.Exit(1)
	}
	log := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("node", cfg.Host).Logger()

	slots, err := parseSlots(cfg.Slots)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing NODE_SLOTS")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Listen).Msg("node listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	regCtx, regCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer regCancel()
	req := grid.RegisterRequest{Proxy: grid.ProxyInfo{Host: cfg.Host, Slots: slots}}
	if err := registerWithRetry(regCtx, cfg.HubAddr, req, log); err != nil {
		log.Fatal().Err(err).Msg("giving up on hub registration")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Best effort: tell the hub we are leaving so status reports shrink
	// immediately instead of waiting for the monitor.
	dereg := strings.TrimRight(cfg.HubAddr, "/") + "/grid/deregister"
	if err := grid.PostJSON(ctx, dereg, grid.DeregisterRequest{Host: cfg.Host}, nil); err != nil {
		log.Warn().Err(err).Msg("hub deregistration failed")
	}

	_ = httpSrv.Shutdown(ctx)
	log.Info().Msg("node stopped")
}
