package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/observability"
	"github.com/spec-kit/data-portal/internal/service"
)

func TestAuditQueue_DeliversAfterClose(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	queue := NewAuditQueue(dispatcher, 1, zap.NewNop())

	var mu sync.Mutex
	var seen []string
	queue.Subscribe(events.EventRecordCreated, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.SubjectID)
		return nil
	})

	metrics := observability.NewMetrics()
	notifications := service.NewNotificationService(queue, zap.NewNop(), metrics, config.NotificationConfig{})
	StartNotificationWorker(notifications, queue)

	ctx, cancel := context.WithCancel(context.Background())
	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, queue.Publish(ctx, events.New(events.EventRecordCreated, id, "", nil)))
	}
	cancel()
	queue.Close()

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"r1", "r2", "r3"}, seen)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() == "portal_mutations_total" {
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, 3.0, total)
}
