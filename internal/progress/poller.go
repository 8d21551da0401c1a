package progress

import (
	"context"
	"time"
)

// Poller recomputes a snapshot for one auction view on a fixed
// interval and hands each result to the sink. Every tick derives from
// absolute timestamps, so a missed or delayed tick cannot drift the
// figure.
type Poller struct {
	interval time.Duration
	in       Inputs
	now      func() time.Time
}

func NewPoller(interval time.Duration, in Inputs) *Poller {
	return &Poller{interval: interval, in: in, now: time.Now}
}

// Run blocks until ctx is cancelled or the auction ends. The final
// ended snapshot is delivered before returning.
func (p *Poller) Run(ctx context.Context, sink func(Snapshot)) {
	tk := time.NewTicker(p.interval)
	defer tk.Stop()

	sink(Compute(p.now(), p.in))
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			snap := Compute(p.now(), p.in)
			sink(snap)
			if snap.Type == TypeEnded {
				return
			}
		}
	}
}
