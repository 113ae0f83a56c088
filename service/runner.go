package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wharflab/lspbridge/client"
	"github.com/wharflab/lspbridge/rpc"
)

const (
	defaultStderrTailBytes = 32 * 1024
	defaultTerminateGrace  = 250 * time.Millisecond
)

// Config describes one language server's spawn configuration (spec.md
// §6, supplemented by per-project registration in the config package).
type Config struct {
	Command []string
	Cwd     string
	Env     []string

	StderrTailBytes int
	TerminateGrace  time.Duration

	// NewClientOptions is called once per spawn attempt so a fresh
	// client.Options can be produced if needed (e.g. a logger scoped to
	// the new attempt number). Most callers can ignore the attempt
	// argument and return the same Options every time.
	NewClientOptions func(attempt int) client.Options

	Logger *slog.Logger
}

// Runner owns the spawn/terminate mechanics for one server process,
// adapted wholesale from the teacher's internal/ai/acp.Runner
// (start-per-fix agent invocation) into a start-and-keep-alive shape: a
// Runner spawns once per call, and the Service above it decides when to
// call it again.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("service: command is empty")
	}
	if cfg.StderrTailBytes <= 0 {
		cfg.StderrTailBytes = defaultStderrTailBytes
	}
	if cfg.TerminateGrace <= 0 {
		cfg.TerminateGrace = defaultTerminateGrace
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{cfg: cfg, log: cfg.Logger}, nil
}

// spawned is one live server instance: its Client and the process that
// backs it, kept together so the Service can terminate the right
// process when the Client is replaced.
type spawned struct {
	client     *client.Client
	proc       *serverProcess
	instanceID string
}

// spawn starts one server process, performs the initialize handshake,
// and returns the resulting Client. On any failure it tears the process
// back down before returning, wrapping the failure in a *SpawnError.
//
// Each spawn is tagged with a fresh instanceID (github.com/google/uuid,
// the correlation-id library the pack's jinterlante1206-AleutianLocal
// repo mints request ids with), since the attempt counter alone resets
// across process restarts of the host and can't disambiguate two distinct
// server incarnations in aggregated logs the way a uuid can.
func (r *Runner) spawn(ctx context.Context, attempt int) (*spawned, error) {
	instanceID := uuid.New().String()

	proc, err := startServerProcess(r.cfg.Cwd, r.cfg.Command, r.cfg.Env, r.cfg.StderrTailBytes, r.cfg.TerminateGrace)
	if err != nil {
		return nil, &SpawnError{Op: "service: spawn", Err: err}
	}

	peer := rpc.NewPeer(ctx, proc.stdout, proc.stdin)

	var opts client.Options
	if r.cfg.NewClientOptions != nil {
		opts = r.cfg.NewClientOptions(attempt)
	}
	if opts.Logger != nil {
		opts.Logger = opts.Logger.With("instance", instanceID)
	}
	c := client.New(peer, opts)
	peer.Open()

	if err := c.Start(ctx); err != nil {
		exit, termErr := proc.terminate()
		return nil, r.wrapErr("service: initialize", errors.Join(err, termErr), proc.stderr, exit)
	}

	return &spawned{client: c, proc: proc, instanceID: instanceID}, nil
}

func (r *Runner) wrapErr(op string, err error, stderr *tailBuffer, exitCode *int) error {
	return &SpawnError{Op: op, Err: err, ExitCode: exitCode, Stderr: stderr.String()}
}

// terminate shuts the spawned instance down: a clean shutdown/exit
// sequence if the Client is still Ready, falling back to process
// termination if the connection is already gone.
func (s *spawned) terminate(ctx context.Context) error {
	if s.client.State() == client.Ready {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.client.Shutdown(shutdownCtx); err != nil {
			_, termErr := s.proc.terminate()
			return fmt.Errorf("service: shutdown: %w", errors.Join(err, termErr))
		}
	}
	_, err := s.proc.terminate()
	return err
}
