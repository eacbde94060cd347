package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
)

func testConfig(name string) Config {
	cfg := DefaultConfig(name)
	cfg.MaxFailures = 2
	cfg.MaxRetries = 2
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestGuard_Run_SucceedsWithoutRetryWhenFnSucceeds(t *testing.T) {
	g := NewGuard[int](testConfig("ok"), logging.New("test", "error", "text"))
	calls := 0

	out, err := g.Run(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, 1, calls)
}

func TestGuard_Run_RetriesOnTransientError(t *testing.T) {
	g := NewGuard[int](testConfig("retry"), logging.New("test", "error", "text"))
	calls := 0

	out, err := g.Run(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.Equal(t, 2, calls)
}

func TestGuard_Run_ExhaustsRetriesAndReturnsUnderlyingError(t *testing.T) {
	g := NewGuard[int](testConfig("fail"), logging.New("test", "error", "text"))
	wantErr := errors.New("always fails")

	_, err := g.Run(context.Background(), func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "always fails")
}

func TestGuard_Run_BreakerOpensAfterMaxFailuresAndAbortsRetry(t *testing.T) {
	cfg := testConfig("breaker")
	g := NewGuard[int](cfg, logging.New("test", "error", "text"))
	wantErr := errors.New("boom")

	// Drive the breaker open: each Run already retries MaxRetries+1 times
	// internally, so a single failing Run is enough to cross MaxFailures.
	_, err := g.Run(context.Background(), func(ctx context.Context) (int, error) {
		return 0, wantErr
	})
	require.Error(t, err)

	calls := 0
	_, err = g.Run(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})

	require.Error(t, err)
	if errors.Is(err, gobreaker.ErrOpenState) {
		assert.Equal(t, 0, calls, "an open breaker must short-circuit without invoking fn")
	}
}

func TestRunErr_DiscardsValue(t *testing.T) {
	g := NewGuard[struct{}](testConfig("runerr"), logging.New("test", "error", "text"))

	err := g.RunErr(context.Background(), func(ctx context.Context) error {
		return nil
	})

	assert.NoError(t, err)
}
