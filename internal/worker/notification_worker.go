package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/service"
)

// AuditQueue moves audit handling off the request goroutine. It satisfies
// events.Dispatcher so services publish to it unchanged.
type AuditQueue struct {
	next   events.Dispatcher
	queue  chan queued
	logger *zap.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

type queued struct {
	ctx   context.Context
	event events.Event
}

// NewAuditQueue wraps next with a buffer of size events.
func NewAuditQueue(next events.Dispatcher, size int, logger *zap.Logger) *AuditQueue {
	if size <= 0 {
		size = 256
	}
	return &AuditQueue{next: next, queue: make(chan queued, size), logger: logger}
}

// Publish enqueues the event. When the buffer is full the event is handled
// inline so none are lost.
func (q *AuditQueue) Publish(ctx context.Context, event events.Event) error {
	item := queued{ctx: context.WithoutCancel(ctx), event: event}
	select {
	case q.queue <- item:
		return nil
	default:
		q.logger.Warn("audit queue full, handling inline", zap.String("event_type", string(event.Type)))
		return q.next.Publish(item.ctx, event)
	}
}

// Subscribe registers on the wrapped dispatcher.
func (q *AuditQueue) Subscribe(eventType events.EventType, handler events.EventHandler) {
	q.next.Subscribe(eventType, handler)
}

// Start drains the queue until Close.
func (q *AuditQueue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for item := range q.queue {
			if err := q.next.Publish(item.ctx, item.event); err != nil {
				q.logger.Warn("audit handler failed", zap.String("event_type", string(item.event.Type)), zap.Error(err))
			}
		}
	}()
}

// Close stops accepting events and waits for queued ones to be handled.
func (q *AuditQueue) Close() {
	q.once.Do(func() { close(q.queue) })
	q.wg.Wait()
}

// StartNotificationWorker subscribes the audit trail and starts draining the
// queue.
func StartNotificationWorker(notificationService *service.NotificationService, queue *AuditQueue) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if queue != nil {
		queue.Start()
	}
}
