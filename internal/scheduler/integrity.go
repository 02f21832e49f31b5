package scheduler

import (
	"context"
	"time"

	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/session"
)

// DefaultSweepInterval is the fallback cadence when no interval is
// configured. It matches the config default.
const DefaultSweepInterval = 24 * time.Hour

// IntegritySweeper periodically re-runs the repair pass over the live
// session. Load already repairs, so this only catches corruption written
// by other instances between loads.
type IntegritySweeper struct {
	sess     *session.Session
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewIntegritySweeper creates a new integrity sweeper.
func NewIntegritySweeper(sess *session.Session, log logger.Logger, interval time.Duration) *IntegritySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &IntegritySweeper{
		sess:     sess,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep process.
func (is *IntegritySweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(is.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				is.sweep(ctx)
			case <-is.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper.
func (is *IntegritySweeper) Stop() {
	close(is.stopCh)
}

func (is *IntegritySweeper) sweep(ctx context.Context) {
	rep, err := is.sess.Sweep(ctx)
	if err != nil {
		is.logger.Error("integrity sweep failed", logger.Error(err))
		return
	}
	if rep.HasChanges {
		is.logger.Info("integrity sweep repaired state",
			logger.Int("urls_fixed", rep.URLsFixed),
			logger.Int("groups_fixed", rep.GroupsFixed))
	} else {
		is.logger.Debug("integrity sweep found nothing to repair")
	}
}
