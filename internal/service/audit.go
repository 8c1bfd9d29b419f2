package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// publisher emits audit events after a mutation commits. A failing audit
// handler never fails the mutation.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, eventType events.EventType, subjectID string, actor *domain.User, payload any) {
	if p.dispatcher == nil {
		return
	}
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	if err := p.dispatcher.Publish(ctx, events.New(eventType, subjectID, actorID, payload)); err != nil {
		p.logger.Warn("audit handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// checkID rejects ids that cannot name a row, so they read as missing rather
// than as a database error.
func checkID(resource, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return nil
}

func lookup[T any](resource, id string, get func() (T, error)) (T, error) {
	var zero T
	if err := checkID(resource, id); err != nil {
		return zero, err
	}
	v, err := get()
	if err != nil {
		if apperrors.IsNotFound(err) {
			return zero, apperrors.NewNotFound(resource, map[string]any{"id": id})
		}
		return zero, apperrors.MapError(err)
	}
	return v, nil
}

func actorRef(actor *domain.User) *string {
	if actor == nil || actor.ID == "" {
		return nil
	}
	id := actor.ID
	return &id
}

func permissionDenied() error {
	return apperrors.NewForbidden("Permission denied")
}
