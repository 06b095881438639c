package workflow

import (
	"fmt"
	"strings"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// ParseStage accepts the canonical stage names as well as the lower-case,
// hyphenated forms used in URLs ("hostel-coordinator").
func ParseStage(raw string) (models.OutpassStage, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_"))
	stage := models.OutpassStage(normalized)
	if !stage.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStage, raw)
	}
	return stage, nil
}

// ParseDecision maps "approve"/"reject" onto an action.
func ParseDecision(raw string) (models.OutpassAction, error) {
	switch models.OutpassAction(strings.ToUpper(strings.TrimSpace(raw))) {
	case models.OutpassActionApprove:
		return models.OutpassActionApprove, nil
	case models.OutpassActionReject:
		return models.OutpassActionReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, raw)
	}
}

// InitialStages returns the stage states of a freshly submitted request.
func InitialStages() [models.StageCount]models.StageState {
	var stages [models.StageCount]models.StageState
	for i := range stages {
		stages[i].Status = models.StageStatusWaiting
	}
	stages[0].Status = models.StageStatusPending
	return stages
}

// Derive computes the overall status and current stage from the stage statuses.
// The first non-approved stage decides: REJECTED there means the request was rejected at
// that stage, anything else means the request is waiting on it. All approved means
// the request is complete.
func Derive(stages [models.StageCount]models.StageState) (models.OutpassStatus, models.OutpassStage) {
	for i, state := range stages {
		switch state.Status {
		case models.StageStatusApproved:
			continue
		case models.StageStatusRejected:
			return models.OutpassStatusRejected, models.ApprovalStages[i]
		default:
			return models.OutpassStatusPending, models.ApprovalStages[i]
		}
	}
	return models.OutpassStatusApproved, models.StageCompleted
}

// Validate checks that a request's stage statuses form one of the reachable shapes
// (approved prefix, then one pending or rejected stage, then waiting stages; or all
// approved) and that the derived fields agree with them.
func Validate(req models.OutpassRequest) error {
	i := 0
	for i < models.StageCount && req.Stages[i].Status == models.StageStatusApproved {
		i++
	}
	if i < models.StageCount {
		decided := req.Stages[i].Status
		if decided != models.StageStatusPending && decided != models.StageStatusRejected {
			return fmt.Errorf("%w: stage %s is %s after approved prefix", ErrInvariantViolation, models.ApprovalStages[i], decided)
		}
		for j := i + 1; j < models.StageCount; j++ {
			if req.Stages[j].Status != models.StageStatusWaiting {
				return fmt.Errorf("%w: stage %s is %s after %s stage", ErrInvariantViolation, models.ApprovalStages[j], req.Stages[j].Status, decided)
			}
		}
	}

	overall, current := Derive(req.Stages)
	if req.OverallStatus != overall {
		return fmt.Errorf("%w: overall status %s, stages imply %s", ErrInvariantViolation, req.OverallStatus, overall)
	}
	if req.CurrentStage != current {
		return fmt.Errorf("%w: current stage %s, stages imply %s", ErrInvariantViolation, req.CurrentStage, current)
	}
	return nil
}

// PendingStage returns the stage awaiting a decision, if any.
func PendingStage(req models.OutpassRequest) (models.OutpassStage, bool) {
	for i, state := range req.Stages {
		if state.Status == models.StageStatusPending {
			return models.ApprovalStages[i], true
		}
	}
	return "", false
}
