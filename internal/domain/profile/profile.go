package profile

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	NameMaxLength = 50
	BioMaxLength  = 200

	MsgEmailNotUnique = "Email address must be unique."
	MsgBioTooLong     = "Bio must be at most 200 characters."
)

type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

// Patch holds the fields of a partial update. A nil field is left untouched.
type Patch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Bio   *string `json:"bio"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Bio == nil
}

// Normalize trims surrounding whitespace from every field.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Bio = strings.TrimSpace(p.Bio)
}

// Normalize returns a copy of the patch with every supplied field trimmed.
func (p Patch) Normalize() Patch {
	return Patch{
		Name:  trimmed(p.Name),
		Email: trimmed(p.Email),
		Bio:   trimmed(p.Bio),
	}
}

// Validate expects a normalized profile.
func (p *Profile) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, nameRules()...),
		validation.Field(&p.Email, emailRules()...),
		validation.Field(&p.Bio, bioRules()...),
	)
}

// Validate checks only the supplied fields. It expects a normalized patch.
func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.When(p.Name != nil, nameRules()...)),
		validation.Field(&p.Email, validation.When(p.Email != nil, emailRules()...)),
		validation.Field(&p.Bio, validation.When(p.Bio != nil, bioRules()...)),
	)
}

// Apply copies the supplied fields onto target.
func (p Patch) Apply(target *Profile) {
	if p.Name != nil {
		target.Name = *p.Name
	}
	if p.Email != nil {
		target.Email = *p.Email
	}
	if p.Bio != nil {
		target.Bio = *p.Bio
	}
}

// SameEmail compares addresses case-insensitively.
func SameEmail(a, b string) bool {
	return strings.EqualFold(a, b)
}

// ValidationMessage picks one message out of a validation error, checking
// fields in declaration order so the result is stable.
func ValidationMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	for _, field := range []string{"name", "email", "bio"} {
		if fieldErr, ok := errs[field]; ok && fieldErr != nil {
			return fieldErr.Error()
		}
	}
	return errs.Error()
}

func nameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Name is required."),
		validation.RuneLength(1, NameMaxLength).Error("Name must be between 1 and 50 characters."),
	}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Email is required."),
		is.EmailFormat.Error("Email must be a valid email address."),
	}
}

func bioRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Bio is required."),
		validation.RuneLength(1, BioMaxLength).Error(MsgBioTooLong),
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

type Repository interface {
	// Create assigns the next id to p and stores it.
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, id int64) (*Profile, error)
	// Update applies patch to the profile with the given id and returns the
	// stored result.
	Update(ctx context.Context, id int64, patch Patch) (*Profile, error)
}
