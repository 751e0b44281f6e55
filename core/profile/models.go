package profile

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleAdmin   = "admin"
)

var (
	AllRoles = []string{RoleStudent, RoleParent, RoleAdmin}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Parent", Value: RoleParent},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Profile is an Identity record: a user with a fixed role.
// The role is immutable once the profile is created.
type Profile struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	ParentID  null.String `json:"parent_id,omitempty"` // set on students only
	ChildIDs  []string    `json:"child_ids,omitempty"` // derived for parents
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
}

func (p *Profile) IsStudent() bool { return p.Role == RoleStudent }
func (p *Profile) IsParent() bool  { return p.Role == RoleParent }
func (p *Profile) IsAdmin() bool   { return p.Role == RoleAdmin }

// HasChild reports whether studentID is in this parent's child set.
func (p *Profile) HasChild(studentID string) bool {
	for _, id := range p.ChildIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// NewProfile contains information needed to create a new Profile.
type NewProfile struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,role"`
	ParentID string `json:"parent_id" validate:"omitempty,uuid4"`
	Secret   string `json:"password" validate:"required,min=8"`
}

func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Role = core.CleanString(np.Role, true /* lower */)

	if err := validate.Struct(np); err != nil {
		return err
	}
	if np.ParentID != "" && np.Role != RoleStudent {
		return core.NewValidationError(nil, core.FieldError{Field: "parent_id", Error: "only students may have a parent link"})
	}
	return nil
}

// UpdateProfile defines what information may be provided to modify an existing
// Profile. Role is deliberately absent: it cannot change post-creation.
type UpdateProfile struct {
	Name     string      `json:"name"`
	Email    string      `json:"email" validate:"omitempty,email"`
	ParentID null.String `json:"parent_id" validate:"-"`
}

func (up *UpdateProfile) Validate(orig Profile, validate *validator.Validate) error {
	name := core.CleanString(up.Name)
	if name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}

	email := core.CleanString(up.Email, true /* lower */)
	if email != "" {
		up.Email = email
	} else {
		up.Email = orig.Email
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.ParentID.Valid && !orig.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "parent_id", Error: "only students may have a parent link"})
	}
	return nil
}

type QueryFilter struct {
	Role string `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Role == ""
}

func (qf *QueryFilter) Clean() {
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// RegisterValidators registers profile-specific validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return IsValidRole(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, "role", "must be one of: student, parent, admin")
}
