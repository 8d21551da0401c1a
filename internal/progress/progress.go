package progress

import (
	"math"
	"time"
)

// Time-derived auction classification. Authoritative for client-facing
// countdown behavior regardless of the persisted status column.
const (
	TypeUpcoming = "upcoming"
	TypeLive     = "live"
	TypeEnded    = "ended"
)

const (
	announcementWindow = 10 * time.Minute
	finalHour          = time.Hour

	// Fallback duration used for time-based live progress when no
	// reserve price gives a price-based scale.
	nominalAuctionDuration = 24 * time.Hour
)

// EffectiveType classifies an auction purely from the clock and its
// start/end timestamps.
func EffectiveType(now, startsAt, endsAt time.Time) string {
	switch {
	case now.Before(startsAt):
		return TypeUpcoming
	case now.After(endsAt):
		return TypeEnded
	default:
		return TypeLive
	}
}

// Inputs are the already-fetched values a snapshot derives from. No
// I/O happens here.
type Inputs struct {
	StartsAt     time.Time
	EndsAt       time.Time
	StartPrice   float64
	CurrentPrice float64
	ReservePrice *float64
}

// Snapshot is the display-facing progress figure: a percentage rounded
// to two decimals and whole seconds remaining in the current phase.
type Snapshot struct {
	Type             string  `json:"type"`
	Percent          float64 `json:"percent"`
	RemainingSeconds int64   `json:"remaining_seconds"`
}

// Compute derives a snapshot from absolute timestamps only. Calling it
// twice with the same inputs yields the same output; there is no
// accumulating state to drift.
func Compute(now time.Time, in Inputs) Snapshot {
	typ := EffectiveType(now, in.StartsAt, in.EndsAt)
	switch typ {
	case TypeEnded:
		return Snapshot{Type: typ, Percent: 100, RemainingSeconds: 0}
	case TypeUpcoming:
		remaining := in.StartsAt.Sub(now)
		return Snapshot{
			Type:             typ,
			Percent:          round2(upcomingPercent(remaining)),
			RemainingSeconds: remainingSeconds(remaining),
		}
	default:
		remaining := in.EndsAt.Sub(now)
		return Snapshot{
			Type:             typ,
			Percent:          round2(livePercent(now, in)),
			RemainingSeconds: remainingSeconds(remaining),
		}
	}
}

// upcomingPercent ramps across three bands that meet without jumps:
// 10 at one hour out, 90 at ten minutes out, 100 at the start.
func upcomingPercent(remaining time.Duration) float64 {
	switch {
	case remaining <= announcementWindow:
		frac := 1 - remaining.Seconds()/announcementWindow.Seconds()
		return 90 + 10*frac
	case remaining <= finalHour:
		span := (finalHour - announcementWindow).Seconds()
		frac := (finalHour - remaining).Seconds() / span
		return 10 + 80*frac
	default:
		return clamp(10/remaining.Hours(), 5, 25)
	}
}

func livePercent(now time.Time, in Inputs) float64 {
	if in.ReservePrice != nil && *in.ReservePrice > in.StartPrice {
		frac := (in.CurrentPrice - in.StartPrice) / (*in.ReservePrice - in.StartPrice)
		return clamp(100*frac, 0, 100)
	}
	elapsed := now.Sub(in.StartsAt)
	return clamp(100*elapsed.Seconds()/nominalAuctionDuration.Seconds(), 10, 90)
}

func remainingSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
