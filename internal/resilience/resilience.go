// Package resilience wraps plugin, mail, and document-store I/O with a
// circuit breaker and exponential backoff. It never wraps the kernel's
// own bookkeeping, which never suspends.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
)

// Config configures one Guard's circuit breaker and retry behavior.
type Config struct {
	Name string

	// Circuit breaker.
	MaxFailures uint32        // consecutive failures before the breaker opens
	OpenTimeout time.Duration // how long the breaker stays open before probing

	// Retry.
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns the engine's baseline tuning for a named call site.
func DefaultConfig(name string) Config {
	return Config{
		Name:           name,
		MaxFailures:    5,
		OpenTimeout:    30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Guard wraps calls of type T behind a circuit breaker and retry policy.
type Guard[T any] struct {
	cb     *gobreaker.CircuitBreaker[T]
	cfg    Config
	logger *logging.Logger
}

// NewGuard builds a Guard from cfg, logging circuit breaker state
// transitions through logger.
func NewGuard[T any](cfg Config, logger *logging.Logger) *Guard[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.With(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state change")
		},
	}
	return &Guard[T]{cb: gobreaker.NewCircuitBreaker[T](settings), cfg: cfg, logger: logger}
}

// Run executes fn behind the circuit breaker, retrying with exponential
// backoff while the breaker stays closed. A gobreaker.ErrOpenState or
// gobreaker.ErrTooManyRequests aborts immediately without retrying, since a
// retry into an open breaker cannot succeed.
func (g *Guard[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	b := backoff.WithContext(newBackOff(g.cfg), ctx)

	var result T
	err := backoff.Retry(func() error {
		out, err := g.cb.Execute(func() (T, error) {
			return fn(ctx)
		})
		if err != nil {
			result = out
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		result = out
		return nil
	}, b)
	if err != nil {
		var zero T
		return zero, unwrapPermanent(err)
	}
	return result, nil
}

// RunErr is Run for call sites that only care about the error, e.g. a
// mail send.
func (g *Guard[T]) RunErr(ctx context.Context, fn func(context.Context) error) error {
	_, err := g.Run(ctx, func(ctx context.Context) (T, error) {
		var zero T
		return zero, fn(ctx)
	})
	return err
}

func newBackOff(cfg Config) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialBackoff
	eb.MaxInterval = cfg.MaxBackoff
	return backoff.WithMaxRetries(eb, cfg.MaxRetries)
}

func unwrapPermanent(err error) error {
	if perr, ok := err.(*backoff.PermanentError); ok {
		return perr.Err
	}
	return err
}
