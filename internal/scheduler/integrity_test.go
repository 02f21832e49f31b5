package scheduler

import (
	"testing"
	"time"

	"github.com/kazmiyai/favuls/internal/logger"
)

func TestNewIntegritySweeperInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
	}{
		{"configured interval wins", time.Hour, time.Hour},
		{"zero falls back to the default", 0, 24 * time.Hour},
		{"negative falls back to the default", -time.Minute, 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := NewIntegritySweeper(nil, logger.Nop(), tt.interval)
			if is.interval != tt.want {
				t.Errorf("interval = %v, want %v", is.interval, tt.want)
			}
		})
	}
}
