package metric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/concord/clock"
)

func newTestStore() *Store {
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	return NewStore(clk, DefaultWeightConfig(), nil)
}

func TestStore_SnapshotUnknownModelNotOK(t *testing.T) {
	s := newTestStore()
	_, ok := s.Snapshot("unknown")
	require.False(t, ok)
}

func TestStore_FirstObservationSeedsEMA(t *testing.T) {
	s := newTestStore()
	s.Record("model-a", 100, true)

	snap, ok := s.Snapshot("model-a")
	require.True(t, ok)
	require.Equal(t, 100.0, snap.EMAResponseTimeMs)
	require.Equal(t, 1.0, snap.EMASuccessRate)
	require.Equal(t, uint64(1), snap.RequestCount)
}

func TestStore_SubsequentObservationsSmoothTowardNewValue(t *testing.T) {
	s := newTestStore()
	s.Record("model-a", 100, true)
	s.Record("model-a", 200, false)

	snap, ok := s.Snapshot("model-a")
	require.True(t, ok)
	require.InDelta(t, 100*0.9+200*0.1, snap.EMAResponseTimeMs, 1e-9)
	require.InDelta(t, 1*0.9+0*0.1, snap.EMASuccessRate, 1e-9)
	require.Equal(t, uint64(2), snap.RequestCount)
}

func TestStore_WeightDefaultsForUnknownModel(t *testing.T) {
	s := newTestStore()
	require.Equal(t, 0.5, s.Weight("unknown"))
}

func TestStore_WeightMixesSuccessAndResponsiveness(t *testing.T) {
	s := newTestStore()
	s.Record("model-a", 0, true) // instant response, always succeeds

	w := s.Weight("model-a")
	require.InDelta(t, 0.7*1+0.3*1, w, 1e-9)
}

func TestStore_WeightClampsResponsivenessAtZero(t *testing.T) {
	s := newTestStore()
	cfg := WeightConfig{ResponseTimeCeiling: 10 * time.Millisecond, SuccessWeight: 0.7, ResponsivenessWeight: 0.3}
	clk := clock.New()
	clk.Set(time.Unix(0, 0))
	s = NewStore(clk, cfg, nil)
	s.Record("slow-model", 1000, true) // far past the ceiling

	w := s.Weight("slow-model")
	require.InDelta(t, 0.7*1+0.3*0, w, 1e-9)
}
