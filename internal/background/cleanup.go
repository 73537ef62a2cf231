package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/faycr/accounts/internal/services"
)

// CleanupManager periodically clears lapsed verification codes so stale
// hashes do not linger in the users table.
type CleanupManager struct {
	userRepo services.UserRepository
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(userRepo services.UserRepository, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		userRepo: userRepo,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup nulls out verification codes whose expiry has passed
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsCleared, err := cm.userRepo.ClearExpiredCodes(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired verification codes", slog.Any("error", err))
		return
	}

	if rowsCleared > 0 {
		cm.logger.Info("expired verification codes cleared", slog.Int64("rows_cleared", rowsCleared))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
