package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/profile-service/internal/domain/profile"
)

type ProfileEventType string

const (
	ProfileEventCreated ProfileEventType = "profile.created"
	ProfileEventUpdated ProfileEventType = "profile.updated"
)

type ProfileEvent struct {
	EventID    uuid.UUID        `json:"event_id"`
	EventType  ProfileEventType `json:"event_type"`
	Profile    profile.Profile  `json:"profile"`
	Changed    []string         `json:"changed,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, evt ProfileEvent) error
}
