package profile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-service/internal/application/service"
	"github.com/khoahotran/profile-service/internal/domain/profile"
	"github.com/khoahotran/profile-service/pkg/apperror"
	"github.com/khoahotran/profile-service/pkg/logger"
)

const eventBufferSize = 256

type ProfileUseCase struct {
	profileRepo profile.Repository
	publisher   service.EventPublisher
	logger      logger.Logger

	// writeMu orders store writes and their events identically.
	writeMu sync.Mutex
	events  chan service.ProfileEvent
	closed  bool
	done    chan struct{}
}

// NewProfileUseCase starts the goroutine that publishes events in the order
// they were produced. Call Close to drain it.
func NewProfileUseCase(repo profile.Repository, publisher service.EventPublisher, log logger.Logger) *ProfileUseCase {
	uc := &ProfileUseCase{
		profileRepo: repo,
		publisher:   publisher,
		logger:      log,
		events:      make(chan service.ProfileEvent, eventBufferSize),
		done:        make(chan struct{}),
	}
	go uc.runPublisher()
	return uc
}

// Close stops accepting events and waits until queued ones are published or
// ctx is done.
func (uc *ProfileUseCase) Close(ctx context.Context) error {
	uc.writeMu.Lock()
	if !uc.closed {
		uc.closed = true
		close(uc.events)
	}
	uc.writeMu.Unlock()

	select {
	case <-uc.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type CreateProfileInput struct {
	Name  string
	Email string
	Bio   string
}

type CreateProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteCreateProfile(ctx context.Context, input CreateProfileInput) (*CreateProfileOutput, error) {
	p := &profile.Profile{
		Name:  input.Name,
		Email: input.Email,
		Bio:   input.Bio,
	}
	p.Normalize()

	if err := p.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(profile.ValidationMessage(err), err)
	}

	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	if err := uc.profileRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.enqueue(service.ProfileEventCreated, *p, nil)
	return &CreateProfileOutput{Profile: p}, nil
}

type GetProfileInput struct {
	ProfileID int64
}

type GetProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	p, err := uc.profileRepo.FindByID(ctx, input.ProfileID)
	if err != nil {
		return nil, err
	}
	return &GetProfileOutput{Profile: p}, nil
}

type UpdateProfileInput struct {
	ProfileID int64
	Patch     profile.Patch
}

type UpdateProfileOutput struct {
	Profile *profile.Profile
}

// ExecuteUpdateProfile checks existence, then the supplied fields, then email
// uniqueness, and only then applies the patch.
func (uc *ProfileUseCase) ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput) (*UpdateProfileOutput, error) {
	if _, err := uc.profileRepo.FindByID(ctx, input.ProfileID); err != nil {
		return nil, err
	}

	patch := input.Patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(profile.ValidationMessage(err), err)
	}

	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	p, err := uc.profileRepo.Update(ctx, input.ProfileID, patch)
	if err != nil {
		return nil, err
	}

	if !patch.IsEmpty() {
		uc.enqueue(service.ProfileEventUpdated, *p, changedFields(patch))
	}
	return &UpdateProfileOutput{Profile: p}, nil
}

// enqueue must be called with writeMu held.
func (uc *ProfileUseCase) enqueue(eventType service.ProfileEventType, p profile.Profile, changed []string) {
	if uc.closed {
		uc.logger.Warn("Dropping profile event after close",
			zap.String("event_type", string(eventType)),
			zap.Int64("profile_id", p.ID),
		)
		return
	}

	uc.events <- service.ProfileEvent{
		EventID:    uuid.New(),
		EventType:  eventType,
		Profile:    p,
		Changed:    changed,
		OccurredAt: time.Now().UTC(),
	}
}

func (uc *ProfileUseCase) runPublisher() {
	defer close(uc.done)
	for evt := range uc.events {
		if err := uc.publisher.PublishProfileEvent(context.Background(), evt); err != nil {
			uc.logger.Error("Failed to publish profile event", err,
				zap.String("event_type", string(evt.EventType)),
				zap.Int64("profile_id", evt.Profile.ID),
			)
		}
	}
}

func changedFields(p profile.Patch) []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.Bio != nil {
		fields = append(fields, "bio")
	}
	return fields
}
