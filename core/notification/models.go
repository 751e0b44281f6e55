package notification

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Severities
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeveritySuccess = "success"
	SeverityError   = "error"
)

var AllSeverities = []string{SeverityInfo, SeverityWarning, SeveritySuccess, SeverityError}

func IsValidSeverity(severity string) bool {
	for _, s := range AllSeverities {
		if s == severity {
			return true
		}
	}
	return false
}

// Notification is created by system events and only ever mutated through its
// read flag; the message itself never changes.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type NewNotification struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid4"`
	Message     string `json:"message" validate:"required"`
	Severity    string `json:"severity" validate:"required,severity"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Message = core.CleanString(nn.Message)
	nn.Severity = core.CleanString(nn.Severity, true /* lower */)
	return validate.Struct(nn)
}

// RegisterValidators registers notification-specific validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return IsValidSeverity(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, "severity", "must be one of: info, warning, success, error")
}
