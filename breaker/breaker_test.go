package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/concord/clock"
)

var errBoom = errors.New("boom")

func succeed(ctx context.Context) (interface{}, error) { return "ok", nil }
func fail(ctx context.Context) (interface{}, error)    { return nil, errBoom }

func testConfig() Config {
	return Config{
		FailureThreshold: 3,
		RecoveryTimeout:  time.Minute,
		SuccessThreshold: 2,
		Timeout:          time.Second,
	}
}

func TestBreaker_ClosedToOpen(t *testing.T) {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	b := New("model-a", testConfig(), clk, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Execute(context.Background(), fail)
		require.ErrorIs(t, err, errBoom)
		require.Equal(t, Closed, b.Status().State)
	}

	_, err := b.Execute(context.Background(), fail)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, Open, b.Status().State)
}

func TestBreaker_OpenRejectsUntilRecoveryTimeout(t *testing.T) {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	b := New("model-a", testConfig(), clk, nil)

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(context.Background(), fail)
	}
	require.Equal(t, Open, b.Status().State)

	_, err := b.Execute(context.Background(), succeed)
	require.ErrorIs(t, err, ErrBreakerOpen)

	clk.Advance(testConfig().RecoveryTimeout + time.Second)

	result, err := b.Execute(context.Background(), succeed)
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, HalfOpen, b.Status().State)
}

func TestBreaker_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	cfg := testConfig()
	b := New("model-a", cfg, clk, nil)

	for i := 0; i < cfg.FailureThreshold; i++ {
		_, _ = b.Execute(context.Background(), fail)
	}
	clk.Advance(cfg.RecoveryTimeout + time.Second)

	for i := 0; i < cfg.SuccessThreshold-1; i++ {
		_, err := b.Execute(context.Background(), succeed)
		require.NoError(t, err)
		require.Equal(t, HalfOpen, b.Status().State)
	}

	_, err := b.Execute(context.Background(), succeed)
	require.NoError(t, err)
	require.Equal(t, Closed, b.Status().State)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	cfg := testConfig()
	b := New("model-a", cfg, clk, nil)

	for i := 0; i < cfg.FailureThreshold; i++ {
		_, _ = b.Execute(context.Background(), fail)
	}
	clk.Advance(cfg.RecoveryTimeout + time.Second)

	_, err := b.Execute(context.Background(), fail)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, Open, b.Status().State)
}

func TestBreaker_ManualResetAndTrip(t *testing.T) {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	b := New("model-a", testConfig(), clk, nil)

	b.Trip("manual")
	require.Equal(t, Open, b.Status().State)

	b.Reset()
	status := b.Status()
	require.Equal(t, Closed, status.State)
	require.Zero(t, status.ConsecutiveFailures)
}

func TestBreaker_ListenerDeliveryOffLock(t *testing.T) {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	b := New("model-a", testConfig(), clk, nil)

	var mu sync.Mutex
	var transitions []State
	var wg sync.WaitGroup
	wg.Add(1)

	b.Subscribe(&funcListener{
		onState: func(e StateChangeEvent) {
			mu.Lock()
			transitions = append(transitions, e.To)
			mu.Unlock()
			if e.To == Open {
				wg.Done()
			}
		},
	})

	for i := 0; i < testConfig().FailureThreshold; i++ {
		_, _ = b.Execute(context.Background(), fail)
	}

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, transitions, Open)
}

type funcListener struct {
	onState func(StateChangeEvent)
	onExec  func(ExecutionEvent)
}

func (f *funcListener) OnStateChange(e StateChangeEvent) {
	if f.onState != nil {
		f.onState(e)
	}
}

func (f *funcListener) OnExecution(e ExecutionEvent) {
	if f.onExec != nil {
		f.onExec(e)
	}
}
