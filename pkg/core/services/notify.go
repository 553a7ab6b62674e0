package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/notify"
)

// sendNotification delivers n and logs a failure. Notification errors never
// fail the operation that produced them.
func sendNotification(ctx context.Context, notifier notify.Notifier, n notify.Notification, logger *zap.Logger) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to send notification", zap.String("title", n.Title), zap.Error(err))
	}
}
