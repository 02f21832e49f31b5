package deps

import (
	"time"

	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/session"
	"github.com/kazmiyai/favuls/internal/store/kv"
)

// Deps carries the shared dependencies passed to every route registrar.
type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Session *session.Session // the one per-process session
	Store   kv.Store         // backing store, for readiness checks
}
