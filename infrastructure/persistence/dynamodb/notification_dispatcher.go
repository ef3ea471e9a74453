package dynamodb

import (
	"context"
	"fmt"
	"time"

	"schoolhub-backend/application/ports"
	"schoolhub-backend/domain/events"
	"schoolhub-backend/domain/notification"

	"go.uber.org/zap"
)

// NotificationDispatcher is the downstream delivery mechanism for recorded
// notifications. The sweep engine only appends pending events; this processor
// polls them in the background and hands them to the event bus, with retry
// bookkeeping on the stored item.
type NotificationDispatcher struct {
	store    *NotificationStore
	eventBus ports.EventBus
	logger   *zap.Logger

	// Configuration
	batchSize    int32
	pollInterval time.Duration
	maxAttempts  int

	// Control channels
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewNotificationDispatcher creates a new notification dispatcher
func NewNotificationDispatcher(
	store *NotificationStore,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		store:        store,
		eventBus:     eventBus,
		logger:       logger,
		batchSize:    50,
		pollInterval: 15 * time.Second,
		maxAttempts:  3,
		stopChan:     make(chan struct{}),
		stoppedChan:  make(chan struct{}),
	}
}

// Start begins background dispatching
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting notification dispatcher",
		zap.Int32("batchSize", d.batchSize),
		zap.Duration("interval", d.pollInterval),
	)

	go d.dispatchLoop(ctx)
}

// Stop gracefully stops the dispatcher
func (d *NotificationDispatcher) Stop() {
	d.logger.Info("Stopping notification dispatcher")
	close(d.stopChan)
	<-d.stoppedChan
	d.logger.Info("Notification dispatcher stopped")
}

func (d *NotificationDispatcher) dispatchLoop(ctx context.Context) {
	defer close(d.stoppedChan)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Context cancelled, stopping notification dispatcher")
			return
		case <-d.stopChan:
			return
		case <-ticker.C:
			if err := d.dispatchBatch(ctx); err != nil {
				d.logger.Error("Error dispatching notification batch", zap.Error(err))
			}
		}
	}
}

// dispatchBatch delivers one batch of pending notifications. A failure on one
// notification never blocks the rest of the batch.
func (d *NotificationDispatcher) dispatchBatch(ctx context.Context) error {
	pending, err := d.store.GetPending(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending notifications: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	successCount := 0
	failureCount := 0

	for _, event := range pending {
		if err := d.dispatchOne(ctx, event); err != nil {
			d.logger.Error("Failed to dispatch notification",
				zap.String("notificationID", event.ID),
				zap.String("borrowerID", event.BorrowerID),
				zap.Error(err),
			)
			failureCount++
		} else {
			successCount++
		}
	}

	d.logger.Debug("Completed notification batch",
		zap.Int("successCount", successCount),
		zap.Int("failureCount", failureCount),
	)

	return nil
}

func (d *NotificationDispatcher) dispatchOne(ctx context.Context, event *notification.Event) error {
	queued := events.NewNotificationQueued(
		event.ID,
		event.BorrowerID,
		event.Title,
		string(event.Severity),
		event.ReferenceID,
		event.CreatedAt,
	)

	if err := d.eventBus.Publish(ctx, queued); err != nil {
		attempts := event.DispatchAttempts + 1
		if markErr := d.store.MarkDispatchFailed(ctx, event, err.Error(), attempts, d.maxAttempts); markErr != nil {
			d.logger.Error("Failed to record dispatch failure",
				zap.String("notificationID", event.ID),
				zap.Error(markErr),
			)
		}
		if attempts >= d.maxAttempts {
			d.logger.Warn("Notification permanently failed after max attempts",
				zap.String("notificationID", event.ID),
				zap.Int("attempts", attempts),
			)
		}
		return fmt.Errorf("publish failed: %w", err)
	}

	return d.store.MarkDispatched(ctx, event)
}
