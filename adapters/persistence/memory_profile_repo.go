package persistence

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/khoahotran/profile-service/internal/domain/profile"
	"github.com/khoahotran/profile-service/pkg/apperror"
	"github.com/khoahotran/profile-service/pkg/logger"
)

type memoryProfileRepo struct {
	mu      sync.RWMutex
	records map[int64]profile.Profile
	nextID  int64
	logger  logger.Logger
}

// NewMemoryProfileRepo returns an empty store whose first id is 1. Records
// live for the lifetime of the process.
func NewMemoryProfileRepo(logger logger.Logger) profile.Repository {
	return &memoryProfileRepo{
		records: make(map[int64]profile.Profile),
		nextID:  1,
		logger:  logger,
	}
}

func (r *memoryProfileRepo) Create(ctx context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.emailOwner(p.Email, 0); taken {
		return errDuplicateEmail(owner)
	}

	p.ID = r.nextID
	r.nextID++
	r.records[p.ID] = *p

	r.logger.Info("Profile stored", zap.Int64("profile_id", p.ID))
	return nil
}

func (r *memoryProfileRepo) FindByID(ctx context.Context, id int64) (*profile.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.records[id]
	if !ok {
		return nil, errProfileNotFound(id)
	}
	return &p, nil
}

func (r *memoryProfileRepo) Update(ctx context.Context, id int64, patch profile.Patch) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.records[id]
	if !ok {
		return nil, errProfileNotFound(id)
	}

	if patch.Email != nil {
		if owner, taken := r.emailOwner(*patch.Email, id); taken {
			return nil, errDuplicateEmail(owner)
		}
	}

	patch.Apply(&p)
	r.records[id] = p

	return &p, nil
}

// emailOwner returns the id of a profile other than exclude that uses email.
// Callers must hold r.mu.
func (r *memoryProfileRepo) emailOwner(email string, exclude int64) (int64, bool) {
	for id, p := range r.records {
		if id != exclude && profile.SameEmail(p.Email, email) {
			return id, true
		}
	}
	return 0, false
}

func errProfileNotFound(id int64) *apperror.AppError {
	return apperror.NewNotFound("Profile", strconv.FormatInt(id, 10))
}

// Details never carry the address itself.
func errDuplicateEmail(ownerID int64) *apperror.AppError {
	return apperror.NewConflict(profile.MsgEmailNotUnique, fmt.Sprintf("email already used by profile %d", ownerID))
}
