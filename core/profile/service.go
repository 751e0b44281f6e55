package profile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound    = errors.New("profile not found")
	ErrEmailExists = errors.New("a profile with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Profile) error
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		QueryAllProfiles(ctx context.Context) ([]Profile, error)
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		GetProfileByEmail(ctx context.Context, email string) (Profile, error)
		// FilterProfiles applies AND operation on available QueryFilter fields.
		FilterProfiles(ctx context.Context, filter QueryFilter) ([]Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
		// ChildrenOf returns the student profiles linked to the given parent.
		ChildrenOf(ctx context.Context, parentID string) ([]Profile, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excl ...Profile) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excl...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// checkParentLink enforces that a parent link references an existing parent profile.
func (svc *Service) checkParentLink(ctx context.Context, parentID string) error {
	parent, err := svc.repo.GetProfileByID(ctx, parentID)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "parent_id", Error: "no such parent profile"})
		}
		return errors.Wrap(err, "finding parent profile")
	}
	if !parent.IsParent() {
		return core.NewValidationError(nil, core.FieldError{Field: "parent_id", Error: "linked profile is not a parent"})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, np NewProfile) (Profile, error) {
	if err := svc.checkUniqueness(ctx, np.Email); err != nil {
		return Profile{}, err
	}
	if np.ParentID != "" {
		if err := svc.checkParentLink(ctx, np.ParentID); err != nil {
			return Profile{}, err
		}
	}

	now := time.Now().UTC()
	p := Profile{
		ID:        uuid.New().String(),
		Name:      np.Name,
		Email:     np.Email,
		Role:      np.Role,
		ParentID:  null.NewString(np.ParentID, np.ParentID != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateProfile(ctx, p)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Profile, error) {
	return svc.repo.QueryAllProfiles(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return svc.repo.GetProfileByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Profile, error) {
	if filter.IsEmpty() {
		return svc.repo.QueryAllProfiles(ctx)
	}
	return svc.repo.FilterProfiles(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdateProfile) (Profile, error) {
	orig, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if up.Email != orig.Email {
		if err := svc.checkUniqueness(ctx, up.Email, orig); err != nil {
			return Profile{}, err
		}
	}
	if up.ParentID.Valid && up.ParentID.String != "" {
		if err := svc.checkParentLink(ctx, up.ParentID.String); err != nil {
			return Profile{}, err
		}
	}

	p := orig
	p.Name = up.Name
	p.Email = up.Email
	if up.ParentID.Valid {
		p.ParentID = up.ParentID
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, p)
}

func (svc *Service) ChildrenOf(ctx context.Context, parent Profile) ([]Profile, error) {
	return svc.repo.ChildrenOf(ctx, parent.ID)
}
