package temporal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"

	"olympics/internal/config"
	"olympics/internal/logger"
)

// DialOptions tunes Dial's retry loop.
type DialOptions struct {
	// Timeout bounds one dial attempt.
	Timeout time.Duration
	// MaxWait bounds the whole loop; zero means a single attempt.
	MaxWait time.Duration
	// Backoff is the initial sleep between attempts; it doubles up to BackoffMax.
	Backoff    time.Duration
	BackoffMax time.Duration
}

// DefaultDialOptions suit a worker starting next to a Temporal server that
// may still be coming up.
var DefaultDialOptions = DialOptions{
	Timeout:    5 * time.Second,
	MaxWait:    60 * time.Second,
	Backoff:    250 * time.Millisecond,
	BackoffMax: 5 * time.Second,
}

// Dial connects to Temporal, retrying until opts.MaxWait elapses.
func Dial(ctx context.Context, cfg config.Temporal, opts DialOptions, log *logger.Logger) (client.Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("temporal: address is not configured")
	}
	if log == nil {
		log = logger.Nop()
	}
	copts := client.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		Logger:    log,
	}

	deadline := time.Now().Add(opts.MaxWait)
	for attempt := 1; ; attempt++ {
		dctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		c, err := client.DialContext(dctx, copts)
		cancel()
		if err == nil {
			if attempt > 1 {
				log.Info("connected to Temporal", "address", cfg.Address, "namespace", cfg.Namespace, "attempts", attempt)
			}
			return c, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if opts.MaxWait <= 0 || time.Now().After(deadline) {
			return nil, fmt.Errorf("temporal dial failed (address=%s namespace=%s): %w", cfg.Address, cfg.Namespace, err)
		}
		log.Warn("Temporal not reachable; retrying", "address", cfg.Address, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(clampBackoff(opts.Backoff, opts.BackoffMax, attempt)):
		}
	}
}

func clampBackoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}
