package http

import (
	"github.com/khoahotran/profile-service/internal/domain/profile"
)

type ProfileDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

type CreateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

// UpdateProfileRequest treats a missing key and an explicit null the same:
// the field is left unchanged.
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Bio   *string `json:"bio"`
}

func ToProfileDTO(p *profile.Profile) ProfileDTO {
	return ProfileDTO{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		Bio:   p.Bio,
	}
}

func (req *UpdateProfileRequest) ToDomainPatch() profile.Patch {
	return profile.Patch{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
	}
}
