package notification

import (
	"context"
	"sync"
	"time"

	"equipment-console/internal/notification"
	"equipment-console/internal/workflow"

	"go.uber.org/zap"
)

// ServiceAdapter forwards workflow notices to the notification service.
// Sends happen in the background and never affect the submission.
type ServiceAdapter struct {
	client  notification.Notifier
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewServiceAdapter creates a new notification service adapter
func NewServiceAdapter(client notification.Notifier, timeout time.Duration, logger *zap.Logger) *ServiceAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ServiceAdapter{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("publisher"),
	}
}

var _ workflow.Publisher = (*ServiceAdapter)(nil)

// Publish sends one notification per notice of the outcome.
func (a *ServiceAdapter) Publish(ctx context.Context, outcome *workflow.Outcome) {
	notifications := Notifications(outcome)
	if len(notifications) == 0 {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		for _, n := range notifications {
			if err := a.client.SendNotificationWithContext(sendCtx, n); err != nil {
				a.logger.Warn("failed to publish workflow notice",
					zap.String("run_id", n.RunID), zap.String("step", n.Step), zap.Error(err))
			}
		}
	}()
}

// Wait blocks until every pending send finished.
func (a *ServiceAdapter) Wait() {
	a.wg.Wait()
}

// Notifications converts the notices of an outcome into notifier payloads.
func Notifications(outcome *workflow.Outcome) []notification.Notification {
	out := make([]notification.Notification, 0, len(outcome.Notices))
	for _, notice := range outcome.Notices {
		out = append(out, notification.Notification{
			Level:       mapNotificationLevel(notice.Level),
			Message:     notice.Message,
			Step:        string(notice.Step),
			EquipmentID: outcome.EquipmentID(),
			RunID:       outcome.RunID.String(),
			Timestamp:   outcome.FinishedAt,
			Metadata: map[string]string{
				"mode":   string(outcome.Mode),
				"status": string(outcome.Status),
			},
		})
	}
	return out
}

// mapNotificationLevel maps workflow notice levels to client notification levels
func mapNotificationLevel(level workflow.NoticeLevel) notification.NotificationLevel {
	switch level {
	case workflow.NoticeWarning:
		return notification.LevelWarning
	case workflow.NoticeError:
		return notification.LevelError
	default:
		return notification.LevelInfo
	}
}
