package scheduler

import (
	"context"

	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/session"
	"github.com/kazmiyai/favuls/internal/store/kv"
)

// ChangeWatcher subscribes to store change notifications and reloads the
// session when another instance writes. Events from this instance are
// dropped by sender id; only foreign writes trigger a reload. Unsaved
// local state is discarded on reload, the stored truth wins.
type ChangeWatcher struct {
	store      kv.Store
	sess       *session.Session
	instanceID string
	logger     logger.Logger
	stopCh     chan struct{}
}

// NewChangeWatcher creates a new change watcher.
func NewChangeWatcher(store kv.Store, sess *session.Session, instanceID string, log logger.Logger) *ChangeWatcher {
	return &ChangeWatcher{
		store:      store,
		sess:       sess,
		instanceID: instanceID,
		logger:     log,
		stopCh:     make(chan struct{}),
	}
}

// Start begins watching for foreign changes.
func (cw *ChangeWatcher) Start(ctx context.Context) error {
	events, err := cw.store.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				cw.handle(ctx, ev)
			case <-cw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the watcher.
func (cw *ChangeWatcher) Stop() {
	close(cw.stopCh)
}

func (cw *ChangeWatcher) handle(ctx context.Context, ev kv.Event) {
	if ev.Sender == cw.instanceID {
		return
	}

	cw.logger.Info("foreign change detected, reloading session",
		logger.String("sender", ev.Sender),
		logger.Int("keys_changed", len(ev.Changes)))

	if err := cw.sess.Reload(ctx); err != nil {
		cw.logger.Error("failed to reload session after foreign change",
			logger.Error(err))
	}
}
