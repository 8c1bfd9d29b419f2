package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string
	d.Subscribe(EventTabCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.SubjectID)
		return errors.New("boom")
	})
	d.Subscribe(EventTabCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventTabDeleted, func(context.Context, Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	err := d.Publish(context.Background(), New(EventTabCreated, "tab-1", "user-1", TabPayload{Name: "Samples"}))
	require.ErrorContains(t, err, "boom")
	require.Equal(t, []string{"first:tab-1", "second:tab-1"}, got)
}

func TestNew_StampsEvent(t *testing.T) {
	e := New(EventRecordDeleted, "rec-1", "", nil)
	require.NotEmpty(t, e.ID)
	require.False(t, e.Timestamp.IsZero())
	require.Equal(t, EventRecordDeleted, e.Type)
}
