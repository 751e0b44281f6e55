package dummydb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db}
}

// query returns all profiles ordered by creation time; children attached.
func (repo *profileRepository) query() []profile.Profile {
	profiles := make([]profile.Profile, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		profiles = append(profiles, repo.withChildren(*p))
	}
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].CreatedAt.Before(profiles[j].CreatedAt) })
	return profiles
}

func (repo *profileRepository) withChildren(p profile.Profile) profile.Profile {
	if !p.IsParent() {
		return p
	}
	var ids []string
	for _, c := range repo.db.profiles {
		if c.ParentID.Valid && c.ParentID.String == p.ID {
			ids = append(ids, c.ID)
		}
	}
	sort.Strings(ids)
	p.ChildIDs = ids
	return p
}

func (repo *profileRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...profile.Profile) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.profiles {
		if p.Email != email {
			continue
		}
		excl := false
		for _, e := range excluded {
			if e.ID == p.ID {
				excl = true
				break
			}
		}
		if !excl {
			return profile.ErrEmailExists
		}
	}
	return nil
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mu.Lock()
	repo.db.profiles[p.ID] = &p
	repo.db.mu.Unlock()

	repo.db.changed(TableProfiles)
	return p, nil
}

func (repo *profileRepository) QueryAllProfiles(ctx context.Context) ([]profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.query(), nil
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.profiles[id]; ok {
		return repo.withChildren(*p), nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.profiles {
		if p.Email == email {
			return repo.withChildren(*p), nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) FilterProfiles(ctx context.Context, filter profile.QueryFilter) ([]profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var filtered []profile.Profile
	for _, p := range repo.query() {
		if p.Role == filter.Role {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mu.Lock()
	orig, ok := repo.db.profiles[p.ID]
	if !ok {
		repo.db.mu.Unlock()
		return profile.Profile{}, profile.ErrNotFound
	}
	orig.Name = p.Name
	orig.Email = p.Email
	orig.ParentID = p.ParentID
	orig.UpdatedAt = p.UpdatedAt
	out := repo.withChildren(*orig)
	repo.db.mu.Unlock()

	repo.db.changed(TableProfiles)
	return out, nil
}

func (repo *profileRepository) ChildrenOf(ctx context.Context, parentID string) ([]profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var children []profile.Profile
	for _, p := range repo.query() {
		if p.ParentID.Valid && p.ParentID.String == parentID {
			children = append(children, p)
		}
	}
	return children, nil
}
