package services

import (
	"context"
	"time"

	"siar-server/logs"
)

// Sweeper is what the ticker drives; satisfied by usecases.LivenessUseCase.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Purger drops expired entries from a cache; weather.Gate is one.
type Purger interface {
	Purge() int
}

// TimeoutSweeper periodically moves silent devices to offline on top of the
// lazy evaluation done on every status read.
type TimeoutSweeper struct {
	sweeper  Sweeper
	interval time.Duration
	purgers  []Purger
}

// NewTimeoutSweeper also purges every given cache on each tick.
func NewTimeoutSweeper(sweeper Sweeper, interval time.Duration, purgers ...Purger) *TimeoutSweeper {
	return &TimeoutSweeper{sweeper: sweeper, interval: interval, purgers: purgers}
}

// Start runs until ctx is done. A non-positive interval disables it.
func (ts *TimeoutSweeper) Start(ctx context.Context) {
	if ts.interval <= 0 {
		logs.Logger.Info("timeout sweep disabled, relying on lazy evaluation")
		return
	}
	ticker := time.NewTicker(ts.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts.RunOnce(ctx)
			}
		}
	}()
	logs.Logger.Infof("timeout sweep every %s", ts.interval)
}

func (ts *TimeoutSweeper) RunOnce(ctx context.Context) int {
	for _, p := range ts.purgers {
		if removed := p.Purge(); removed > 0 {
			logs.Logger.Debugf("purged %d expired cache entries", removed)
		}
	}

	n, err := ts.sweeper.Sweep(ctx)
	if err != nil {
		logs.Logger.Errorf("timeout sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		logs.Logger.Infof("timeout sweep moved %d devices offline", n)
	} else {
		logs.Logger.Debug("timeout sweep: nothing to do")
	}
	return n
}
