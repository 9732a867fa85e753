package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/profile-service/internal/application/service"
	"github.com/khoahotran/profile-service/pkg/logger"
)

// RecordProfileEventUseCase writes one audit line per profile event.
type RecordProfileEventUseCase struct {
	logger logger.Logger
}

func NewRecordProfileEventUseCase(log logger.Logger) *RecordProfileEventUseCase {
	return &RecordProfileEventUseCase{logger: log}
}

func (uc *RecordProfileEventUseCase) Execute(ctx context.Context, evt service.ProfileEvent) error {
	switch evt.EventType {
	case service.ProfileEventCreated, service.ProfileEventUpdated:
	default:
		return fmt.Errorf("unknown profile event type %q", evt.EventType)
	}
	if evt.Profile.ID <= 0 {
		return fmt.Errorf("profile event %s has no profile id", evt.EventID)
	}

	uc.logger.Info("Profile audit",
		zap.String("event_id", evt.EventID.String()),
		zap.String("event_type", string(evt.EventType)),
		zap.Int64("profile_id", evt.Profile.ID),
		zap.Strings("changed", evt.Changed),
		zap.Time("occurred_at", evt.OccurredAt),
	)
	return nil
}
