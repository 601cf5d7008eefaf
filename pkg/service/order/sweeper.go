package order

import (
	"context"
	"time"
)

// RunSweeper expires overdue orders every interval until ctx ends. A
// non-positive interval returns immediately.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Info("order sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("order sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.ExpireOverdue(ctx)
			if err != nil {
				s.logger.Error("order sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("order sweep expired orders", "count", n)
			}
		}
	}
}
