// Package service supervises one language server's process lifecycle:
// spawning it, running the initialize handshake, and respawning it with
// backoff if it crashes, so the rest of the runtime can bind to a
// *client.Client without caring which process incarnation backs it
// (spec.md §4.G).
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	backoff "github.com/cenkalti/backoff/v5"

	"github.com/wharflab/lspbridge/client"
)

// Service owns the respawn loop for one language server type (e.g.
// "gopls", "rust-analyzer"). It is a singleton per server type, the way
// the teacher keeps one acp.Runner per resolver; here one Service backs
// every buffer of a given language.
type Service struct {
	runner *Runner
	log    *slog.Logger

	current atomic.Pointer[client.Client]

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	started   bool
	listeners []func(*client.Client)
}

// New constructs a Service from cfg without starting it.
func New(cfg Config) (*Service, error) {
	runner, err := NewRunner(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{runner: runner, log: runner.log}, nil
}

// OnReady registers a callback invoked synchronously every time a fresh
// Client becomes current: on Start's goroutine for the first instance,
// on the supervisor's goroutine for each respawn — the property-binding replacement for the teacher's
// change-notify signal (spec.md §9 REDESIGN FLAGS).
func (s *Service) OnReady(fn func(*client.Client)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Client returns the current live Client, or nil if the Service has not
// produced one yet. The returned value may be swapped out from under the
// caller on respawn; callers that need a stable reference across a
// respawn should use OnReady instead.
func (s *Service) Client() *client.Client {
	return s.current.Load()
}

// Start spawns the server once, synchronously, then launches the
// respawn-on-crash supervisor in the background. It returns once the
// first instance is Ready (or spawning has permanently failed).
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	sp, err := s.spawnWithBackoff(runCtx, 1)
	if err != nil {
		cancel()
		close(s.done)
		return err
	}
	s.log.Info("service: server ready", "instance", sp.instanceID)
	s.setCurrent(sp.client)

	go s.supervise(runCtx, sp)
	return nil
}

// Stop cancels the supervisor and terminates the current instance.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	_ = ctx
	return nil
}

func (s *Service) setCurrent(c *client.Client) {
	s.current.Store(c)
	s.mu.Lock()
	listeners := append([]func(*client.Client){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

// supervise watches the live instance for disconnection and respawns
// with backoff until runCtx is cancelled.
func (s *Service) supervise(runCtx context.Context, sp *spawned) {
	defer close(s.done)
	attempt := 1
	for {
		select {
		case <-runCtx.Done():
			_ = sp.terminate(context.Background())
			return
		case <-sp.client.Done():
		}

		s.log.Warn("service: server disconnected, respawning", "instance", sp.instanceID)
		// The disconnected peer's process may have exited on its own or may
		// still be lingering (e.g. a broken pipe while the server hangs);
		// either way it must be reaped before its resources are abandoned.
		_ = sp.terminate(runCtx)
		attempt++

		next, err := s.spawnWithBackoff(runCtx, attempt)
		if err != nil {
			s.log.Error("service: giving up respawning server", "error", err)
			return
		}
		sp = next
		s.setCurrent(sp.client)
	}
}

// spawnWithBackoff retries Runner.spawn with exponential backoff
// (github.com/cenkalti/backoff/v5, the teacher's own retry library —
// internal/registry/async_resolver.go), giving up only when runCtx is
// cancelled.
func (s *Service) spawnWithBackoff(runCtx context.Context, attempt int) (*spawned, error) {
	return backoff.Retry(runCtx, func() (*spawned, error) {
		sp, err := s.runner.spawn(runCtx, attempt)
		if err != nil {
			return nil, err
		}
		return sp, nil
	}, backoff.WithMaxElapsedTime(0))
}
