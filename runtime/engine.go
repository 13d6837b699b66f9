// Package runtime holds the relay core: membership registry, fanout
// dispatcher and connection lifecycle. It orchestrates delivery without
// containing transport or storage logic.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"time"
)

// Engine wires the core together and owns the background workers. It is an
// explicitly-constructed instance, never a singleton, so every process and
// every test builds a fresh one.
type Engine struct {
	log        *slog.Logger
	registry   *Registry
	dispatcher *Dispatcher
	tracker    *Tracker
	supervisor contract.ISupervisor
}

func NewEngine(log *slog.Logger, auth contract.IAuthenticator,
	supervisor contract.ISupervisor, sinkTimeout time.Duration) *Engine {
	registry := NewRegistry()
	dispatcher := NewDispatcher(log, registry, sinkTimeout)
	tracker := NewTracker(log, auth, registry, dispatcher, sinkTimeout)
	return &Engine{
		log:        log,
		registry:   registry,
		dispatcher: dispatcher,
		tracker:    tracker,
		supervisor: supervisor,
	}
}

func (e *Engine) Registry() *Registry { return e.registry }

// Dispatcher is the entry point for write-path collaborators: after a
// mutation commits, they broadcast the resulting event through it.
func (e *Engine) Dispatcher() contract.IDispatcher { return e.dispatcher }

func (e *Engine) Tracker() *Tracker { return e.tracker }

// Start launches the supervised background workers and blocks until ctx is
// canceled and every worker has wound down.
func (e *Engine) Start(ctx context.Context, metricInterval time.Duration) {
	telemetry := workers.NewTelemetryWorker(e.log, metricInterval, e.registry.Counts)
	e.supervisor.Add(telemetry)
	e.supervisor.Run(ctx)
}

func (e *Engine) Stop() {
	e.supervisor.Stop()
}
