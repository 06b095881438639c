package models

import "time"

// OutpassStage names one approval step. The approval order is fixed.
type OutpassStage string

const (
	StageFacultyAdvisor    OutpassStage = "FACULTY_ADVISOR"
	StageHostelCoordinator OutpassStage = "HOSTEL_COORDINATOR"
	StageHOD               OutpassStage = "HOD"
	StageWarden            OutpassStage = "WARDEN"
	// StageCompleted is only ever a current_stage value, never an approval step.
	StageCompleted OutpassStage = "COMPLETED"
)

// StageCount is the number of approval steps.
const StageCount = 4

// ApprovalStages lists the approval steps in order.
var ApprovalStages = [StageCount]OutpassStage{
	StageFacultyAdvisor,
	StageHostelCoordinator,
	StageHOD,
	StageWarden,
}

// Index returns the stage position in ApprovalStages, or -1.
func (s OutpassStage) Index() int {
	for i, stage := range ApprovalStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is an approval step.
func (s OutpassStage) Valid() bool {
	return s.Index() >= 0
}

// Next returns the following approval step; false for the last one.
func (s OutpassStage) Next() (OutpassStage, bool) {
	idx := s.Index()
	if idx < 0 || idx+1 >= StageCount {
		return "", false
	}
	return ApprovalStages[idx+1], true
}

// Label is the human readable stage title.
func (s OutpassStage) Label() string {
	switch s {
	case StageFacultyAdvisor:
		return "Faculty Advisor"
	case StageHostelCoordinator:
		return "Hostel Coordinator"
	case StageHOD:
		return "HOD"
	case StageWarden:
		return "Warden"
	case StageCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// RequiredRole returns the faculty role allowed to act on the stage.
func (s OutpassStage) RequiredRole() (FacultyRoleType, bool) {
	switch s {
	case StageFacultyAdvisor:
		return FacultyRoleAdvisor, true
	case StageHostelCoordinator:
		return FacultyRoleHostelCoordinator, true
	case StageHOD:
		return FacultyRoleHOD, true
	case StageWarden:
		return FacultyRoleWarden, true
	default:
		return "", false
	}
}

// StageStatus is the state of a single approval step.
type StageStatus string

const (
	StageStatusWaiting  StageStatus = "WAITING"
	StageStatusPending  StageStatus = "PENDING"
	StageStatusApproved StageStatus = "APPROVED"
	StageStatusRejected StageStatus = "REJECTED"
)

// OutpassStatus is the overall request status.
type OutpassStatus string

const (
	OutpassStatusPending  OutpassStatus = "PENDING"
	OutpassStatusApproved OutpassStatus = "APPROVED"
	OutpassStatusRejected OutpassStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible.
func (s OutpassStatus) Terminal() bool {
	return s == OutpassStatusApproved || s == OutpassStatusRejected
}

// StageState records the outcome of one approval step.
type StageState struct {
	Status       StageStatus `json:"status"`
	ApproverID   *string     `json:"approver_id,omitempty"`
	ApproverName *string     `json:"approver_name,omitempty"`
	ActedAt      *time.Time  `json:"acted_at,omitempty"`
}

// OutpassRequest is a student's application to leave the hostel.
// OverallStatus and CurrentStage are derived from Stages by the workflow package.
type OutpassRequest struct {
	ID            string                 `json:"id"`
	StudentID     string                 `json:"student_id"`
	Reason        string                 `json:"reason"`
	Destination   string                 `json:"destination"`
	OutDate       string                 `json:"out_date"`
	OutTime       string                 `json:"out_time"`
	ReturnDate    string                 `json:"return_date"`
	ReturnTime    string                 `json:"return_time"`
	OverallStatus OutpassStatus          `json:"overall_status"`
	CurrentStage  OutpassStage           `json:"current_stage"`
	Stages        [StageCount]StageState `json:"stages"`
	SubmittedAt   time.Time              `json:"submitted_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Version       int                    `json:"version"`
}

// Stage returns the state of an approval step.
func (r OutpassRequest) Stage(s OutpassStage) (StageState, bool) {
	idx := s.Index()
	if idx < 0 {
		return StageState{}, false
	}
	return r.Stages[idx], true
}

// PendingOutpass is an outpass joined with requester details for approver queues.
type PendingOutpass struct {
	Request OutpassRequest
	Student StudentProfile
}
