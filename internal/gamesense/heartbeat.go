package gamesense

import (
	"context"
	"time"
)

// RunHeartbeat sends a heartbeat every interval until ctx is done. Failures are
// logged; the next beat is the retry.
func (m *Manager) RunHeartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Heartbeat(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				m.logger.Warn().Err(err).Msg("Heartbeat failed")
			}
		}
	}
}
