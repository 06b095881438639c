package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/repository"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/workflow"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
)

type outpassStore interface {
	Create(ctx context.Context, req *models.OutpassRequest, event *models.OutpassEvent) error
	GetByID(ctx context.Context, id string) (*models.OutpassRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.OutpassRequest, error)
	ListPendingAtStage(ctx context.Context, stage models.OutpassStage) ([]models.PendingOutpass, error)
	WithinRequestTx(ctx context.Context, id string, fn func(tx repository.OutpassTx, current models.OutpassRequest) error) error
}

type outpassEventReader interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.OutpassEvent, error)
}

type studentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type stageAuthorizer interface {
	Authorize(ctx context.Context, principal *models.JWTClaims, stage models.OutpassStage, student *models.StudentProfile) error
	RolesFor(ctx context.Context, principal *models.JWTClaims) ([]models.FacultyRole, error)
}

type shortfallProvider interface {
	Shortfall(ctx context.Context, studentID string) (models.AttendanceShortfall, error)
}

type outpassNotifier interface {
	Notify(ctx context.Context, note OutpassNotification)
}

// OutpassService runs the four-stage outpass approval workflow.
type OutpassService struct {
	store       outpassStore
	events      outpassEventReader
	students    studentDirectory
	authorizer  stageAuthorizer
	eligibility EligibilityGate
	shortfall   shortfallProvider
	notifier    outpassNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// OutpassServiceOption configures the service.
type OutpassServiceOption func(*OutpassService)

// WithOutpassNotifier sets the post-commit notifier.
func WithOutpassNotifier(n outpassNotifier) OutpassServiceOption {
	return func(s *OutpassService) {
		s.notifier = n
	}
}

// WithOutpassMetrics records workflow counters.
func WithOutpassMetrics(m *MetricsService) OutpassServiceOption {
	return func(s *OutpassService) {
		s.metrics = m
	}
}

// WithOutpassClock overrides the time source.
func WithOutpassClock(now func() time.Time) OutpassServiceOption {
	return func(s *OutpassService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOutpassService constructs the service with defaults.
func NewOutpassService(store outpassStore, events outpassEventReader, students studentDirectory, authorizer stageAuthorizer, shortfall shortfallProvider, validate *validator.Validate, logger *zap.Logger, opts ...OutpassServiceOption) *OutpassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &OutpassService{
		store:       store,
		events:      events,
		students:    students,
		authorizer:  authorizer,
		eligibility: NewEligibilityGate(),
		shortfall:   shortfall,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit creates a request for the student linked to actor. Non-residents are refused
// before anything is written.
func (s *OutpassService) Submit(ctx context.Context, req dto.SubmitOutpassRequest, actor *models.JWTClaims) (*dto.OutpassView, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can apply for an outpass")
	}
	req = normalizeSubmit(req)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordOutpassSubmission("invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outpass payload")
	}
	if err := validateWindow(req); err != nil {
		s.metrics.RecordOutpassSubmission("invalid")
		return nil, err
	}

	profile, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	if !s.eligibility.CanRequest(profile) {
		s.metrics.RecordOutpassSubmission("ineligible")
		return nil, appErrors.Clone(appErrors.ErrIneligibleRequester, "")
	}

	request, event := workflow.NewRequest(workflow.Draft{
		StudentID:   profile.ID,
		Reason:      req.Reason,
		Destination: req.Destination,
		OutDate:     req.OutDate,
		OutTime:     req.OutTime,
		ReturnDate:  req.ReturnDate,
		ReturnTime:  req.ReturnTime,
	}, actor.UserID, actor.DisplayName(), s.now())

	if err := s.store.Create(ctx, &request, &event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit outpass")
	}

	s.metrics.RecordOutpassSubmission("accepted")
	s.notify(ctx, event, profile.ID)
	s.logger.Info("outpass submitted", zap.String("request_id", request.ID), zap.String("student_id", profile.ID))
	return toOutpassView(request), nil
}

// Act applies an approver decision on a stage. The read, authorization, transition and
// write happen under one row lock, so concurrent decisions on a request serialize and at
// most one of them succeeds per stage.
func (s *OutpassService) Act(ctx context.Context, requestID string, stage models.OutpassStage, decision models.OutpassAction, actor *models.JWTClaims) (*dto.ActOutpassResponse, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if strings.TrimSpace(requestID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request id is required")
	}
	if !isUUID(requestID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "outpass not found")
	}
	if !stage.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown stage")
	}
	if decision != models.OutpassActionApprove && decision != models.OutpassActionReject {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject")
	}

	var (
		next      models.OutpassRequest
		event     models.OutpassEvent
		studentID string
	)
	err := s.store.WithinRequestTx(ctx, requestID, func(tx repository.OutpassTx, current models.OutpassRequest) error {
		studentID = current.StudentID
		student, err := s.students.FindByID(ctx, current.StudentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requester")
		}
		if err := s.authorizer.Authorize(ctx, actor, stage, student); err != nil {
			return err
		}
		next, event, err = workflow.Advance(current, workflow.Action{
			Stage:     stage,
			Decision:  decision,
			ActorID:   actor.UserID,
			ActorName: actor.DisplayName(),
			At:        s.now(),
		})
		if err != nil {
			return mapWorkflowError(err)
		}
		if err := tx.Update(ctx, &next, current.Version); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, &event)
	})
	if err != nil {
		appErr := s.actError(err)
		s.metrics.RecordOutpassRefusal(stage, appErr.Code)
		if appErr.Status >= 500 {
			s.logger.Error("outpass action failed", zap.String("request_id", requestID), zap.String("stage", string(stage)), zap.Error(err))
		}
		return nil, appErr
	}

	s.metrics.RecordOutpassTransition(event)
	s.notify(ctx, event, studentID)
	s.logger.Info("outpass stage decided",
		zap.String("request_id", requestID),
		zap.String("stage", string(stage)),
		zap.String("action", string(decision)),
		zap.String("actor_id", actor.UserID),
		zap.String("overall", string(next.OverallStatus)),
	)
	return &dto.ActOutpassResponse{Message: ActionMessage(event), Outpass: toOutpassView(next)}, nil
}

// ListForRequester returns a student's requests newest first. Students may only list
// their own; staff may list anyone's.
func (s *OutpassService) ListForRequester(ctx context.Context, studentID string, actor *models.JWTClaims) ([]dto.OutpassView, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	profile, err := s.resolveStudent(ctx, studentID, actor)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outpasses")
	}
	views := make([]dto.OutpassView, 0, len(items))
	for _, item := range items {
		views = append(views, *toOutpassView(item))
	}
	return views, nil
}

// ListPendingForStage returns requests awaiting stage, oldest first, each annotated with
// the requester's attendance shortfall. Faculty only see requests they could act on;
// administrators see the whole queue.
func (s *OutpassService) ListPendingForStage(ctx context.Context, stage models.OutpassStage, actor *models.JWTClaims) ([]dto.PendingOutpassView, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !actor.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty can view approval queues")
	}
	if !stage.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown stage")
	}

	var roles []models.FacultyRole
	if !actor.Role.IsAdmin() {
		var err error
		roles, err = s.authorizer.RolesFor(ctx, actor)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty roles")
		}
	}

	items, err := s.store.ListPendingAtStage(ctx, stage)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending outpasses")
	}

	views := make([]dto.PendingOutpassView, 0, len(items))
	for _, item := range items {
		if !actor.Role.IsAdmin() && !Covers(roles, stage, &item.Student) {
			continue
		}
		shortfall, err := s.shortfall.Shortfall(ctx, item.Student.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, toPendingView(item, shortfall))
	}
	return views, nil
}

// Get returns one request. Students may only read their own.
func (s *OutpassService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.OutpassView, error) {
	req, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return toOutpassView(*req), nil
}

// History returns the append-only event log of a request.
func (s *OutpassService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.OutpassEvent, error) {
	req, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outpass history")
	}
	if events == nil {
		events = make([]models.OutpassEvent, 0)
	}
	return events, nil
}

// LoadApproved returns the request and its requester when it is fully approved.
func (s *OutpassService) LoadApproved(ctx context.Context, id string, actor *models.JWTClaims) (*models.OutpassRequest, *models.StudentProfile, error) {
	req, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, nil, err
	}
	if req.OverallStatus != models.OutpassStatusApproved {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "gate pass is only available for approved outpasses")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requester")
	}
	return req, student, nil
}

func (s *OutpassService) loadVisible(ctx context.Context, id string, actor *models.JWTClaims) (*models.OutpassRequest, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !isUUID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "outpass not found")
	}
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outpass not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outpass")
	}
	if actor.Role.IsStaff() {
		return req, nil
	}
	profile, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil || profile.ID != req.StudentID {
		// Do not reveal that someone else's request exists.
		return nil, appErrors.Clone(appErrors.ErrNotFound, "outpass not found")
	}
	return req, nil
}

func (s *OutpassService) resolveStudent(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.StudentProfile, error) {
	var (
		profile *models.StudentProfile
		err     error
	)
	if studentID != "" && !isUUID(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	switch {
	case actor.Role == models.RoleStudent:
		profile, err = s.students.FindByUserID(ctx, actor.UserID)
		if err == nil && studentID != "" && studentID != profile.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own outpasses")
		}
	case actor.Role.IsStaff():
		if studentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
		}
		profile, err = s.students.FindByID(ctx, studentID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return profile, nil
}

// actError maps errors escaping the request transaction onto API errors.
func (s *OutpassService) actError(err error) *appErrors.Error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "outpass not found")
	case errors.Is(err, repository.ErrVersionConflict):
		// The row lock makes this unreachable on Postgres; kept for stores without one.
		return appErrors.Clone(appErrors.ErrStageMismatch, "outpass changed concurrently, reload and retry")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record outpass decision")
}

func (s *OutpassService) notify(ctx context.Context, event models.OutpassEvent, studentID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, OutpassNotification{Event: event, StudentID: studentID})
}

func mapWorkflowError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrRequestAlreadyTerminal):
		return appErrors.Wrap(err, appErrors.ErrRequestAlreadyTerminal.Code, appErrors.ErrRequestAlreadyTerminal.Status, appErrors.ErrRequestAlreadyTerminal.Message)
	case errors.Is(err, workflow.ErrStageMismatch):
		return appErrors.Wrap(err, appErrors.ErrStageMismatch.Code, appErrors.ErrStageMismatch.Status, appErrors.ErrStageMismatch.Message)
	case errors.Is(err, workflow.ErrInvalidStage), errors.Is(err, workflow.ErrInvalidAction):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stage action")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "outpass is in an inconsistent state")
	}
}

// isUUID reports whether id can be bound to a uuid column.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func normalizeSubmit(req dto.SubmitOutpassRequest) dto.SubmitOutpassRequest {
	req.Reason = strings.TrimSpace(req.Reason)
	req.Destination = strings.TrimSpace(req.Destination)
	req.OutDate = strings.TrimSpace(req.OutDate)
	req.OutTime = strings.TrimSpace(req.OutTime)
	req.ReturnDate = strings.TrimSpace(req.ReturnDate)
	req.ReturnTime = strings.TrimSpace(req.ReturnTime)
	return req
}

func validateWindow(req dto.SubmitOutpassRequest) error {
	out, err := time.Parse("2006-01-02 15:04", req.OutDate+" "+req.OutTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid out date or time")
	}
	back, err := time.Parse("2006-01-02 15:04", req.ReturnDate+" "+req.ReturnTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid return date or time")
	}
	if !back.After(out) {
		return appErrors.Clone(appErrors.ErrValidation, "return must be after departure")
	}
	return nil
}
