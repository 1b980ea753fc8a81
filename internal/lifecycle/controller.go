package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dirserve/internal/logging"
	"dirserve/internal/probe"
)

// ErrStopTimeout indicates the daemon did not confirm stopped within the
// polling budget.
var ErrStopTimeout = errors.New("process would not exit")

// Options configures the shutdown state machine.
type Options struct {
	PIDFilePath  string
	StopSignal   string
	PollInterval time.Duration
	MaxAttempts  int
}

// Controller orchestrates daemon shutdown: probe, signal once, then poll on a
// bounded budget until the process confirms stopped.
type Controller struct {
	prober   probe.Prober
	signaler probe.Signaler
	logger   *slog.Logger
	opts     Options

	// sleep is swapped out in tests so polling runs without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a shutdown controller. The prober and signaler are captured
// once; Options gaps fall back to the 500 ms / 10 attempt defaults.
func New(prober probe.Prober, signaler probe.Signaler, logger *slog.Logger, opts Options) (*Controller, error) {
	if prober == nil || signaler == nil {
		return nil, errors.New("lifecycle controller requires prober and signaler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.StopSignal == "" {
		opts.StopSignal = "TERM"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	return &Controller{
		prober:   prober,
		signaler: signaler,
		logger:   logging.WithComponent(logger, "lifecycle"),
		opts:     opts,
		sleep:    sleepContext,
	}, nil
}

// Stop drives the daemon to a confirmed stop. Calling it against an already
// stopped daemon succeeds without sending any signal. A probe error at any
// point aborts immediately; the process state is unknown and unsafe to assume.
func (c *Controller) Stop(ctx context.Context) error {
	status, err := c.prober.Probe(ctx, c.opts.PIDFilePath)
	if err != nil {
		return fmt.Errorf("initial probe: %w", err)
	}
	if status == probe.StatusStopped {
		c.logger.Debug("daemon already stopped", logging.String("pid_file", c.opts.PIDFilePath))
		return nil
	}

	if err := c.signaler.Signal(ctx, c.opts.PIDFilePath, c.opts.StopSignal); err != nil {
		return fmt.Errorf("send SIG%s: %w", c.opts.StopSignal, err)
	}
	c.logger.Info("termination signal sent",
		logging.String("signal", c.opts.StopSignal),
		logging.String("pid_file", c.opts.PIDFilePath))

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, c.opts.PollInterval); err != nil {
			return fmt.Errorf("wait for exit: %w", err)
		}

		status, err := c.prober.Probe(ctx, c.opts.PIDFilePath)
		if err != nil {
			return fmt.Errorf("poll %d: %w", attempt, err)
		}
		switch status {
		case probe.StatusStopped:
			c.logger.Info("daemon exit confirmed", logging.Int("attempts", attempt))
			return nil
		case probe.StatusRunning:
			c.logger.Debug("daemon still running",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", c.opts.MaxAttempts))
		}
	}

	return fmt.Errorf("%w after %d polls", ErrStopTimeout, c.opts.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
