package breaker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/concord/clock"
)

func TestRegistry_GetOrCreateIsStable(t *testing.T) {
	clk := clock.New()
	reg := NewRegistry(testConfig(), clk, nil)

	a := reg.GetOrCreate("model-a")
	b := reg.GetOrCreate("model-a")
	require.Same(t, a, b)

	c := reg.GetOrCreate("model-b")
	require.NotSame(t, a, c)
}

func TestRegistry_ResetAll(t *testing.T) {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	reg := NewRegistry(testConfig(), clk, nil)

	a := reg.GetOrCreate("model-a")
	a.Trip("manual")
	require.Equal(t, Open, a.Status().State)

	reg.ResetAll()
	require.Equal(t, Closed, a.Status().State)
}

func TestRegistry_GetAllStatus(t *testing.T) {
	clk := clock.New()
	reg := NewRegistry(testConfig(), clk, nil)

	a := reg.GetOrCreate("model-a")
	b := reg.GetOrCreate("model-b")
	_, _ = a.Execute(context.Background(), succeed)
	_, _ = b.Execute(context.Background(), fail)

	statuses := reg.GetAllStatus()
	require.Len(t, statuses, 2)
	require.Contains(t, statuses, "model-a")
	require.Contains(t, statuses, "model-b")
}
