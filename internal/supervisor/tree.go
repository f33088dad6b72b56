// Package supervisor wraps a suture supervisor tree with two failure
// domains: core and bridge. In cmd/timingcore-demo the bridge group runs
// the live-feed hub and the HTTP server, and no service is registered in
// core (the Schedule runs on its own timers). A crash in bridge
// never restarts core and vice versa, mirroring the separation between
// the in-memory scheduling core and its outward-facing consumers.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig returns suture's own built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the two-group supervisor: core and bridge.
type Tree struct {
	root   *suture.Supervisor
	core   *suture.Supervisor
	bridge *suture.Supervisor
	config TreeConfig
}

// New builds a Tree logging supervisor events through logger.
func New(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config = DefaultTreeConfig()
	}

	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("timingsrc", rootSpec)
	core := suture.New("core", childSpec)
	bridge := suture.New("bridge", childSpec)
	root.Add(core)
	root.Add(bridge)

	return &Tree{root: root, core: core, bridge: bridge, config: config}
}

// AddCore registers svc under the core group.
func (t *Tree) AddCore(svc suture.Service) suture.ServiceToken { return t.core.Add(svc) }

// AddBridge registers svc (in cmd/timingcore-demo: the live-feed hub
// and the HTTP server) under the bridge group.
func (t *Tree) AddBridge(svc suture.Service) suture.ServiceToken { return t.bridge.Add(svc) }

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error { return t.root.Serve(ctx) }

// ServeBackground runs the tree in its own goroutine, returning a
// channel that receives the terminal error.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// Remove stops and removes the service registered under token.
func (t *Tree) Remove(token suture.ServiceToken) error { return t.root.Remove(token) }

// UnstoppedServiceReport lists services that failed to stop within
// their shutdown timeout, for logging after Serve/ServeBackground returns.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
