package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) Subscribe(events.EventType, events.EventHandler) {}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func actor(role domain.Role) *domain.User {
	return &domain.User{ID: uuid.NewString(), Username: string(role), Role: role}
}
