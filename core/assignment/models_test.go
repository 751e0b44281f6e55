package assignment

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	RegisterValidators(validate, translator)
	return validate
}

func TestStatusBadge(t *testing.T) {
	tests := []struct {
		status string
		want   Badge
	}{
		{StatusPending, Badge{Label: "Pending", Severity: BadgeWarn}},
		{StatusCompleted, Badge{Label: "Completed", Severity: BadgeSuccess}},
		{StatusLate, Badge{Label: "Late", Severity: BadgeDanger}},
		{"archived", Badge{Label: "archived", Severity: BadgeNeutral}},
		{"", Badge{Label: "", Severity: BadgeNeutral}},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := StatusBadge(tt.status); got != tt.want {
				t.Errorf("StatusBadge(%q) = %+v; want %+v", tt.status, got, tt.want)
			}
		})
	}
}

func TestView_EffectiveStatus(t *testing.T) {
	v := View{Assignment: Assignment{Status: StatusPending}}
	if got := v.EffectiveStatus(); got != StatusPending {
		t.Errorf("EffectiveStatus() = %q; want pending", got)
	}

	v.StudentAssignment = &StudentAssignment{Status: StatusCompleted}
	if got := v.EffectiveStatus(); got != StatusCompleted {
		t.Errorf("EffectiveStatus() = %q; want completed", got)
	}
}

func TestUpdateStudentAssignment_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		data    UpdateStudentAssignment
		wantErr bool
	}{
		{name: "empty update is fine", data: UpdateStudentAssignment{}},
		{name: "progress lower bound", data: UpdateStudentAssignment{Progress: null.IntFrom(0)}},
		{name: "progress upper bound", data: UpdateStudentAssignment{Progress: null.IntFrom(100)}},
		{name: "progress too low", data: UpdateStudentAssignment{Progress: null.IntFrom(-1)}, wantErr: true},
		{name: "progress too high", data: UpdateStudentAssignment{Progress: null.IntFrom(101)}, wantErr: true},
		{name: "known status", data: UpdateStudentAssignment{Status: "Completed "}},
		{name: "unknown status", data: UpdateStudentAssignment{Status: "archived"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}
