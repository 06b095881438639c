package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// Action is an approver's decision on one stage.
type Action struct {
	Stage     models.OutpassStage
	Decision  models.OutpassAction
	ActorID   string
	ActorName string
	At        time.Time
}

// Draft holds the requester-supplied fields of a new outpass.
type Draft struct {
	StudentID   string
	Reason      string
	Destination string
	OutDate     string
	OutTime     string
	ReturnDate  string
	ReturnTime  string
}

// NewRequest builds the initial request (advisor pending, every other stage waiting)
// together with its SUBMIT event.
func NewRequest(d Draft, actorID, actorName string, at time.Time) (models.OutpassRequest, models.OutpassEvent) {
	at = at.UTC()
	req := models.OutpassRequest{
		ID:          uuid.NewString(),
		StudentID:   d.StudentID,
		Reason:      d.Reason,
		Destination: d.Destination,
		OutDate:     d.OutDate,
		OutTime:     d.OutTime,
		ReturnDate:  d.ReturnDate,
		ReturnTime:  d.ReturnTime,
		Stages:      InitialStages(),
		SubmittedAt: at,
		UpdatedAt:   at,
		Version:     1,
	}
	req.OverallStatus, req.CurrentStage = Derive(req.Stages)

	event := models.OutpassEvent{
		ID:           uuid.NewString(),
		RequestID:    req.ID,
		Stage:        models.ApprovalStages[0],
		Action:       models.OutpassActionSubmit,
		FromStatus:   models.StageStatusWaiting,
		ToStatus:     models.StageStatusPending,
		OverallAfter: req.OverallStatus,
		ActorID:      actorID,
		ActorName:    actorName,
		OccurredAt:   at,
	}
	return req, event
}

// Advance applies act to req and returns the resulting request and its history event.
// req is taken by value and never modified. A terminal request is reported before a
// stage mismatch, so retries after a final decision always see ErrRequestAlreadyTerminal.
func Advance(req models.OutpassRequest, act Action) (models.OutpassRequest, models.OutpassEvent, error) {
	if req.OverallStatus.Terminal() {
		return req, models.OutpassEvent{}, fmt.Errorf("%w: request %s is %s", ErrRequestAlreadyTerminal, req.ID, req.OverallStatus)
	}
	if !act.Stage.Valid() {
		return req, models.OutpassEvent{}, fmt.Errorf("%w: %q", ErrInvalidStage, act.Stage)
	}
	var outcome models.StageStatus
	switch act.Decision {
	case models.OutpassActionApprove:
		outcome = models.StageStatusApproved
	case models.OutpassActionReject:
		outcome = models.StageStatusRejected
	default:
		return req, models.OutpassEvent{}, fmt.Errorf("%w: %q", ErrInvalidAction, act.Decision)
	}
	if err := Validate(req); err != nil {
		return req, models.OutpassEvent{}, err
	}
	pending, ok := PendingStage(req)
	if !ok {
		return req, models.OutpassEvent{}, fmt.Errorf("%w: request %s has no pending stage", ErrInvariantViolation, req.ID)
	}
	if act.Stage != pending {
		return req, models.OutpassEvent{}, fmt.Errorf("%w: request %s is pending at %s, not %s", ErrStageMismatch, req.ID, pending, act.Stage)
	}

	at := act.At.UTC()
	actorID, actorName := act.ActorID, act.ActorName
	next := req
	idx := act.Stage.Index()
	next.Stages[idx] = models.StageState{
		Status:       outcome,
		ApproverID:   &actorID,
		ApproverName: &actorName,
		ActedAt:      &at,
	}
	if outcome == models.StageStatusApproved {
		if following, ok := act.Stage.Next(); ok {
			next.Stages[following.Index()].Status = models.StageStatusPending
		}
	}
	next.OverallStatus, next.CurrentStage = Derive(next.Stages)
	next.UpdatedAt = at
	next.Version = req.Version + 1

	event := models.OutpassEvent{
		ID:           uuid.NewString(),
		RequestID:    req.ID,
		Stage:        act.Stage,
		Action:       act.Decision,
		FromStatus:   req.Stages[idx].Status,
		ToStatus:     outcome,
		OverallAfter: next.OverallStatus,
		ActorID:      actorID,
		ActorName:    actorName,
		OccurredAt:   at,
	}
	return next, event, nil
}
