package monitor

import (
	"context"
	"time"
)

// alarmClock drives the check cycles: one immediate wakeup on start, then one
// per interval. The channel closes once the clock is stopped.
type alarmClock struct {
	cancel func()
	ticker *time.Ticker
	C      chan time.Time
}

func newAlarmClock(interval time.Duration) *alarmClock {
	return &alarmClock{
		ticker: time.NewTicker(interval),
		C:      make(chan time.Time),
	}
}

func (a *alarmClock) Start(ctx context.Context) <-chan time.Time {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go func() {
		defer close(a.C)

		select {
		case a.C <- time.Now().UTC():
		case <-ctx.Done():
			return
		}

		for {
			select {
			case t := <-a.ticker.C:
				select {
				case a.C <- t.UTC():
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return a.C
}

func (a *alarmClock) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.ticker.Stop()
}
