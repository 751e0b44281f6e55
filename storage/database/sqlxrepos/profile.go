package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/profile"
)

type profileRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Email     string      `db:"email"`
	Role      string      `db:"role"`
	ParentID  null.String `db:"parent_id"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r profileRow) toDomain() profile.Profile {
	return profile.Profile{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      r.Role,
		ParentID:  r.ParentID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func fromDomain(p profile.Profile) profileRow {
	return profileRow{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		ParentID:  p.ParentID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

// attachChildren loads the derived child set for parent profiles.
func (repo *profileRepository) attachChildren(ctx context.Context, p *profile.Profile) error {
	if !p.IsParent() {
		return nil
	}
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT id FROM profiles WHERE parent_id = $1 ORDER BY created_at`, p.ID)
	if err != nil {
		return errors.Wrap(err, "loading child ids")
	}
	p.ChildIDs = ids
	return nil
}

func (repo *profileRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...profile.Profile) error {
	exclIDs := make([]string, 0, len(excluded))
	for _, p := range excluded {
		exclIDs = append(exclIDs, p.ID)
	}

	q := `SELECT COUNT(*) FROM profiles WHERE email = ?`
	args := []interface{}{email}
	if len(exclIDs) > 0 {
		var err error
		q, args, err = sqlx.In(`SELECT COUNT(*) FROM profiles WHERE email = ? AND id NOT IN (?)`, email, exclIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return profile.ErrEmailExists
	}
	return nil
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO profiles (id, name, email, role, parent_id, created_at, updated_at)
		 VALUES (:id, :name, :email, :role, :parent_id, :created_at, :updated_at)`,
		fromDomain(p))
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return p, nil
}

func (repo *profileRepository) QueryAllProfiles(ctx context.Context) ([]profile.Profile, error) {
	var rows []profileRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	return repo.toDomainAll(ctx, rows)
}

func (repo *profileRepository) toDomainAll(ctx context.Context, rows []profileRow) ([]profile.Profile, error) {
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		p := r.toDomain()
		if err := repo.attachChildren(ctx, &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (repo *profileRepository) get(ctx context.Context, q string, args ...interface{}) (profile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "getting profile")
	}
	p := row.toDomain()
	if err := repo.attachChildren(ctx, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	return repo.get(ctx, `SELECT * FROM profiles WHERE id = $1`, id)
}

func (repo *profileRepository) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	return repo.get(ctx, `SELECT * FROM profiles WHERE email = $1`, email)
}

func (repo *profileRepository) FilterProfiles(ctx context.Context, filter profile.QueryFilter) ([]profile.Profile, error) {
	var rows []profileRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM profiles WHERE role = $1 ORDER BY created_at`, filter.Role)
	if err != nil {
		return nil, errors.Wrap(err, "filtering profiles")
	}
	return repo.toDomainAll(ctx, rows)
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE profiles
		 SET name = :name, email = :email, parent_id = :parent_id, updated_at = :updated_at
		 WHERE id = :id`,
		fromDomain(p))
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (repo *profileRepository) ChildrenOf(ctx context.Context, parentID string) ([]profile.Profile, error) {
	var rows []profileRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM profiles WHERE parent_id = $1 ORDER BY created_at`, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.toDomain())
	}
	return profiles, nil
}
