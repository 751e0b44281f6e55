package assignment

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

// Lifecycle statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusLate      = "late"
)

var AllStatuses = []string{StatusPending, StatusCompleted, StatusLate}

func IsValidStatus(status string) bool {
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Badge severities
const (
	BadgeWarn    = "warn"
	BadgeSuccess = "success"
	BadgeDanger  = "danger"
	BadgeNeutral = "neutral"
)

type Badge struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
}

var statusBadges = map[string]Badge{
	StatusPending:   {Label: "Pending", Severity: BadgeWarn},
	StatusCompleted: {Label: "Completed", Severity: BadgeSuccess},
	StatusLate:      {Label: "Late", Severity: BadgeDanger},
}

// StatusBadge maps a lifecycle status to its display badge. Statuses outside
// the known set render a neutral badge; writes are validated so these only
// occur on rows mutated out-of-band.
func StatusBadge(status string) Badge {
	if b, ok := statusBadges[status]; ok {
		return b
	}
	return Badge{Label: status, Severity: BadgeNeutral}
}

// Assignment is the task definition, shared across assigned students.
type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status"`
	DueAt       time.Time `json:"due_at"`     // UTC
	CreatedBy   string    `json:"created_by"` // creator profile ID
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// StudentAssignment is one student's progress record against an Assignment.
type StudentAssignment struct {
	AssignmentID string      `json:"assignment_id"`
	StudentID    string      `json:"student_id"`
	Status       string      `json:"status"`
	Progress     int         `json:"progress"` // 0-100
	Feedback     null.String `json:"feedback,omitempty"`
	Grade        null.String `json:"grade,omitempty"`
	SubmittedAt  null.Time   `json:"submitted_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// View is the list unit: an Assignment joined with the caller-visible
// StudentAssignment, if any.
type View struct {
	Assignment
	StudentAssignment *StudentAssignment `json:"student_assignment,omitempty"`
}

// EffectiveStatus returns the per-student status when a join row is attached,
// the global definition status otherwise.
func (v View) EffectiveStatus() string {
	if v.StudentAssignment != nil {
		return v.StudentAssignment.Status
	}
	return v.Status
}

// NewAssignment contains information needed to create a new Assignment.
// StudentIDs optionally provisions a join row per assigned student.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Subject     string    `json:"subject" validate:"required"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	StudentIDs  []string  `json:"student_ids" validate:"omitempty,dive,uuid4"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Subject = core.CleanString(na.Subject)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment; zero-valued fields are left untouched.
type UpdateAssignment struct {
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	Subject     string      `json:"subject"`
	Status      string      `json:"status" validate:"omitempty,assignmentstatus"`
	DueAt       null.Time   `json:"due_at"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Subject = core.CleanString(ua.Subject)
	ua.Status = core.CleanString(ua.Status, true /* lower */)
	return validate.Struct(ua)
}

// UpdateStudentAssignment targets the unique (assignment, student) pair.
type UpdateStudentAssignment struct {
	Status      string      `json:"status" validate:"omitempty,assignmentstatus"`
	Progress    null.Int    `json:"progress" validate:"-"`
	Feedback    null.String `json:"feedback"`
	Grade       null.String `json:"grade"`
	SubmittedAt null.Time   `json:"submitted_at"`
}

func (us *UpdateStudentAssignment) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.Progress.Valid && (us.Progress.Int < 0 || us.Progress.Int > 100) {
		return core.NewValidationError(nil, core.FieldError{Field: "progress", Error: "must be between 0 and 100"})
	}
	return nil
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID, true /* lower */)
}

// RegisterValidators registers assignment-specific validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation("assignmentstatus", func(fl validator.FieldLevel) bool {
		return IsValidStatus(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, "assignmentstatus", "must be one of: pending, completed, late")
}
