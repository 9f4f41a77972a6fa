package services

import (
	"audit-service/internal/metrics"
	"audit-service/internal/models"
	"audit-service/internal/repository"
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ResolutionNotifier is told about every report a supervisor resolves.
type ResolutionNotifier interface {
	NotifyResolved(ctx context.Context, record *models.AuditRecord) error
}

type IAuditService interface {
	Submit(ctx context.Context, caller *models.Claims, req models.SubmitRecordRequest) (*models.AuditRecord, error)
	ListAll(ctx context.Context, caller *models.Claims) ([]*models.AuditRecord, error)
	Filter(ctx context.Context, caller *models.Claims, query models.FilterQuery) ([]*models.AuditRecord, error)
	Critical(ctx context.Context, caller *models.Claims) ([]*models.AuditRecord, error)
	ListMine(ctx context.Context, caller *models.Claims) ([]*models.AuditRecord, error)
	Get(ctx context.Context, caller *models.Claims, id string) (*models.AuditRecord, error)
	Update(ctx context.Context, caller *models.Claims, id string, patch models.RecordPatch) (*models.AuditRecord, error)
	Resolve(ctx context.Context, caller *models.Claims, id string) (*models.AuditRecord, error)
	Delete(ctx context.Context, caller *models.Claims, id string) error
}

type AuditService struct {
	recordRepo repository.IAuditRecordRepository
	notifier   ResolutionNotifier
	validator  *Validator
	logger     *zap.Logger
	now        func() time.Time
}

func NewAuditService(recordRepo repository.IAuditRecordRepository, notifier ResolutionNotifier,
	validator *Validator, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		recordRepo: recordRepo,
		notifier:   notifier,
		validator:  validator,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit stores a new report. Identity and timestamps are always assigned here.
func (s *AuditService) Submit(ctx context.Context, caller *models.Claims, req models.SubmitRecordRequest) (*models.AuditRecord, error) {
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && req.State != caller.State {
		return nil, fmt.Errorf("%w: officers may only report for their own state", models.ErrForbidden)
	}

	now := s.now().UTC()
	record := &models.AuditRecord{
		ID:                  primitive.NewObjectID(),
		AuthorID:            caller.UserID,
		State:               req.State,
		BuildingZone:        req.BuildingZone,
		ReportDate:          req.ReportDate,
		ReportTime:          req.ReportTime,
		InspectorName:       req.InspectorName,
		UtilityLocationType: defaultString(req.UtilityLocationType, "Indoor"),
		UtilityName:         req.UtilityName,
		UtilityCode:         defaultString(req.UtilityCode, "None"),
		ConditionKey:        req.ConditionKey,
		LastInspectionDate:  req.LastInspectionDate,
		LastMaintenanceDue:  req.LastMaintenanceDue,
		NextMaintenanceDue:  req.NextMaintenanceDue,
		ActionRequired:      req.ActionRequired,
		FaultDetails:        req.FaultDetails,
		UtilityCategory:     req.UtilityCategory,
		ReadyToSubmit:       defaultString(req.ReadyToSubmit, "Yes"),
		BroadcastToAll:      req.BroadcastToAll,
		ImageURL:            req.ImageURL,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.recordRepo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}

	metrics.ReportsSubmitted.WithLabelValues(record.State, strconv.Itoa(record.ConditionKey)).Inc()
	s.logger.Info("audit report stored",
		zap.String("record_id", record.ID.Hex()),
		zap.String("state", record.State),
		zap.Int("condition", record.ConditionKey))
	return record, nil
}

func (s *AuditService) ListAll(ctx context.Context, caller *models.Claims) ([]*models.AuditRecord, error) {
	return s.recordRepo.FindRecords(ctx, scopeToCaller(caller, models.RecordCriteria{}))
}

func (s *AuditService) Filter(ctx context.Context, caller *models.Claims, query models.FilterQuery) ([]*models.AuditRecord, error) {
	if !caller.IsAdmin() && query.State != "" && query.State != caller.State {
		return nil, fmt.Errorf("%w: officers may only read their own state", models.ErrForbidden)
	}
	criteria := models.RecordCriteria{
		State:         query.State,
		InspectorName: query.InspectorName,
		UtilityName:   query.UtilityName,
	}
	return s.recordRepo.FindRecords(ctx, scopeToCaller(caller, criteria))
}

func (s *AuditService) Critical(ctx context.Context, caller *models.Claims) ([]*models.AuditRecord, error) {
	return s.recordRepo.FindRecords(ctx, scopeToCaller(caller, models.RecordCriteria{CriticalOnly: true}))
}

func (s *AuditService) ListMine(ctx context.Context, caller *models.Claims) ([]*models.AuditRecord, error) {
	return s.recordRepo.FindRecords(ctx, models.RecordCriteria{AuthorID: caller.UserID})
}

func (s *AuditService) Get(ctx context.Context, caller *models.Claims, id string) (*models.AuditRecord, error) {
	record, err := s.recordRepo.GetRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && record.State != caller.State {
		// Hide the existence of other regions' reports.
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	return record, nil
}

// Update rewrites conditionKey and/or actionRequired. Nothing else about the record changes.
func (s *AuditService) Update(ctx context.Context, caller *models.Claims, id string, patch models.RecordPatch) (*models.AuditRecord, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: only supervisors may update reports", models.ErrForbidden)
	}
	if patch.IsEmpty() {
		return nil, models.NewValidationError("nothing to update", "conditionKey", "actionRequired")
	}
	if err := s.validator.Validate(&patch); err != nil {
		return nil, err
	}

	record, err := s.recordRepo.UpdateRecordFields(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("audit report updated", zap.String("record_id", id), zap.String("by", caller.UserID))
	return record, nil
}

// Resolve marks a report as fixed and publishes a notification. Publishing is best effort.
func (s *AuditService) Resolve(ctx context.Context, caller *models.Claims, id string) (*models.AuditRecord, error) {
	record, err := s.Update(ctx, caller, id, models.ResolvedPatch())
	if err != nil {
		return nil, err
	}
	metrics.ReportsResolved.Inc()

	if s.notifier != nil {
		if err := s.notifier.NotifyResolved(ctx, record); err != nil {
			metrics.NotificationsFailed.Inc()
			s.logger.Warn("failed to publish resolution notification",
				zap.String("record_id", id),
				zap.Error(err))
		}
	}
	return record, nil
}

func (s *AuditService) Delete(ctx context.Context, caller *models.Claims, id string) error {
	if !caller.IsAdmin() {
		return fmt.Errorf("%w: only supervisors may delete reports", models.ErrForbidden)
	}
	if err := s.recordRepo.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.logger.Info("audit report deleted", zap.String("record_id", id), zap.String("by", caller.UserID))
	return nil
}

// scopeToCaller pins officers to their own region. Admins see every region.
func scopeToCaller(caller *models.Claims, criteria models.RecordCriteria) models.RecordCriteria {
	if !caller.IsAdmin() {
		criteria.State = caller.State
	}
	return criteria
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
