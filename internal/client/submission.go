package client

import (
	"audit-service/internal/models"
	"audit-service/internal/services"
	"context"
	"errors"
	"sync"
)

type FormStatus string

const (
	FormEditing    FormStatus = "editing"
	FormSubmitting FormStatus = "submitting"
)

type SubmitOutcome int

const (
	OutcomeSubmitted SubmitOutcome = iota + 1
	OutcomeCancelled
)

var (
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrFormBusy       = errors.New("form cannot be edited while submitting")
)

type ReportSubmitter interface {
	Submit(ctx context.Context, req models.SubmitRecordRequest) (*models.AuditRecord, error)
}

type SubmitResult struct {
	Outcome SubmitOutcome
	Record  *models.AuditRecord
}

// SubmissionForm holds one officer's report draft.
// It moves editing -> submitting -> editing; fields survive a failed submit.
type SubmissionForm struct {
	mu        sync.Mutex
	api       ReportSubmitter
	validator *services.Validator
	fields    models.SubmitRecordRequest
	status    FormStatus
	lastErr   error
}

// NewSubmissionForm starts a draft pre-filled from the session: the region and inspector are the officer's own.
func NewSubmissionForm(api ReportSubmitter, session Session) *SubmissionForm {
	return &SubmissionForm{
		api:       api,
		validator: services.NewValidator(),
		status:    FormEditing,
		fields: models.SubmitRecordRequest{
			State:               session.State,
			InspectorName:       session.Username,
			UtilityLocationType: "Indoor",
			UtilityCode:         "None",
			ConditionKey:        models.CriticalConditionKey,
			UtilityCategory:     "General",
			ReadyToSubmit:       "Yes",
			BroadcastToAll:      true,
		},
	}
}

func (f *SubmissionForm) Fields() models.SubmitRecordRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *SubmissionForm) Status() FormStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// LastError is the error of the most recent failed submit, cleared by a successful one.
func (f *SubmissionForm) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *SubmissionForm) Edit(apply func(*models.SubmitRecordRequest)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == FormSubmitting {
		return ErrFormBusy
	}
	apply(&f.fields)
	return nil
}

// Submit validates locally and only then calls the API.
func (f *SubmissionForm) Submit(ctx context.Context) (SubmitResult, error) {
	f.mu.Lock()
	if f.status == FormSubmitting {
		f.mu.Unlock()
		return SubmitResult{}, ErrSubmitInFlight
	}
	if f.fields.ReadyToSubmit == "No" {
		f.mu.Unlock()
		return SubmitResult{Outcome: OutcomeCancelled}, nil
	}
	if err := f.validator.Validate(&f.fields); err != nil {
		f.lastErr = err
		f.mu.Unlock()
		return SubmitResult{}, err
	}
	f.status = FormSubmitting
	draft := f.fields
	f.mu.Unlock()

	record, err := f.api.Submit(ctx, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = FormEditing
	if err != nil {
		f.lastErr = err
		return SubmitResult{}, err
	}

	f.lastErr = nil
	f.fields.BuildingZone = ""
	f.fields.UtilityName = ""
	f.fields.UtilityCode = "None"
	f.fields.FaultDetails = ""
	f.fields.ActionRequired = ""
	return SubmitResult{Outcome: OutcomeSubmitted, Record: record}, nil
}
