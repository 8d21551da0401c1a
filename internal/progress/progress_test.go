package progress

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

func TestEffectiveType(t *testing.T) {
	start := base
	end := base.Add(24 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before_start", start.Add(-time.Minute), TypeUpcoming},
		{"at_start", start, TypeLive},
		{"mid_auction", start.Add(12 * time.Hour), TypeLive},
		{"at_end", end, TypeLive},
		{"after_end", end.Add(time.Second), TypeEnded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, EffectiveType(tc.now, start, end))
			// pure: identical inputs, identical output
			require.Equal(t, tc.want, EffectiveType(tc.now, start, end))
		})
	}
}

func TestCompute_Ended(t *testing.T) {
	in := Inputs{StartsAt: base.Add(-2 * time.Hour), EndsAt: base.Add(-time.Hour)}
	snap := Compute(base, in)
	require.Equal(t, TypeEnded, snap.Type)
	require.Equal(t, float64(100), snap.Percent)
	require.Equal(t, int64(0), snap.RemainingSeconds)
}

func TestCompute_UpcomingBands(t *testing.T) {
	in := Inputs{StartsAt: base.Add(5 * time.Minute), EndsAt: base.Add(24 * time.Hour)}
	snap := Compute(base, in)
	require.Equal(t, TypeUpcoming, snap.Type)
	require.Equal(t, int64(300), snap.RemainingSeconds)
	require.GreaterOrEqual(t, snap.Percent, float64(0))
	require.LessOrEqual(t, snap.Percent, float64(100))
	// halfway through the ten-minute window
	require.InDelta(t, 95, snap.Percent, 0.01)

	farOut := Compute(base, Inputs{StartsAt: base.Add(5 * time.Hour)})
	require.InDelta(t, 5, farOut.Percent, 0.01) // 10/5h clamped to the floor

	midHour := Compute(base, Inputs{StartsAt: base.Add(35 * time.Minute)})
	require.InDelta(t, 50, midHour.Percent, 0.01)
}

func TestCompute_UpcomingContinuousAtBoundaries(t *testing.T) {
	at := func(remaining time.Duration) float64 {
		return Compute(base, Inputs{StartsAt: base.Add(remaining)}).Percent
	}
	require.InDelta(t, at(10*time.Minute), at(10*time.Minute+time.Second), 0.05)
	require.InDelta(t, at(time.Hour), at(time.Hour+time.Second), 0.05)
}

func TestCompute_UpcomingMonotonic(t *testing.T) {
	prev := -1.0
	for remaining := 6 * time.Hour; remaining > 0; remaining -= 30 * time.Second {
		p := Compute(base, Inputs{StartsAt: base.Add(remaining)}).Percent
		require.GreaterOrEqual(t, p, prev, "regressed at remaining=%s", remaining)
		prev = p
	}
	require.LessOrEqual(t, prev, 100.0)
}

func TestCompute_LiveReserveBased(t *testing.T) {
	in := Inputs{
		StartsAt:     base.Add(-time.Hour),
		EndsAt:       base.Add(time.Hour),
		StartPrice:   10000,
		CurrentPrice: 15000,
		ReservePrice: f64(20000),
	}
	snap := Compute(base, in)
	require.Equal(t, TypeLive, snap.Type)
	require.Equal(t, float64(50), snap.Percent)
	require.Equal(t, int64(3600), snap.RemainingSeconds)

	in.CurrentPrice = 25000 // past the reserve, clamps at the top
	require.Equal(t, float64(100), Compute(base, in).Percent)
}

func TestCompute_LiveTimeBasedFallback(t *testing.T) {
	in := Inputs{
		StartsAt:     base.Add(-6 * time.Hour),
		EndsAt:       base.Add(30 * time.Hour),
		StartPrice:   5000,
		CurrentPrice: 5000,
	}
	// 6h of a 24h nominal duration = 25%
	require.InDelta(t, 25, Compute(base, in).Percent, 0.01)

	justStarted := Inputs{StartsAt: base.Add(-time.Second), EndsAt: base.Add(48 * time.Hour)}
	require.Equal(t, float64(10), Compute(base, justStarted).Percent) // floor clamp

	// reserve at or below start price does not enable price scaling
	in.ReservePrice = f64(5000)
	require.InDelta(t, 25, Compute(base, in).Percent, 0.01)
}

func TestCompute_PercentAlwaysTwoDecimals(t *testing.T) {
	for _, remaining := range []time.Duration{
		7*time.Minute + 13*time.Second,
		43*time.Minute + 7*time.Second,
		3*time.Hour + 11*time.Minute,
	} {
		p := Compute(base, Inputs{StartsAt: base.Add(remaining)}).Percent
		require.Equal(t, p, math.Round(p*100)/100)
	}
}

func TestPoller_EmitsAndStopsAtEnd(t *testing.T) {
	in := Inputs{StartsAt: base.Add(-2 * time.Hour), EndsAt: base.Add(-time.Hour)}
	p := NewPoller(time.Millisecond, in)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []Snapshot
	p.Run(ctx, func(s Snapshot) { got = append(got, s) })

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	require.Equal(t, TypeEnded, last.Type)
	require.Equal(t, float64(100), last.Percent)
}
