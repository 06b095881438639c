package dto

import (
	"time"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// SubmitOutpassRequest is the payload a resident student sends to apply for an outpass.
type SubmitOutpassRequest struct {
	Reason      string `json:"reason" validate:"required,max=500"`
	Destination string `json:"destination" validate:"required,max=200"`
	OutDate     string `json:"out_date" validate:"required,datetime=2006-01-02"`
	OutTime     string `json:"out_time" validate:"required,datetime=15:04"`
	ReturnDate  string `json:"return_date" validate:"required,datetime=2006-01-02"`
	ReturnTime  string `json:"return_time" validate:"required,datetime=15:04"`
}

// StageView renders one approval step.
type StageView struct {
	Stage        models.OutpassStage `json:"stage"`
	Label        string              `json:"label"`
	Status       models.StageStatus  `json:"status"`
	ApproverName *string             `json:"approver_name,omitempty"`
	ActedAt      *time.Time          `json:"acted_at,omitempty"`
}

// OutpassView is the read projection of a request.
type OutpassView struct {
	ID                string               `json:"id"`
	StudentID         string               `json:"student_id"`
	Reason            string               `json:"reason"`
	Destination       string               `json:"destination"`
	OutDate           string               `json:"out_date"`
	OutTime           string               `json:"out_time"`
	ReturnDate        string               `json:"return_date"`
	ReturnTime        string               `json:"return_time"`
	OverallStatus     models.OutpassStatus `json:"overall_status"`
	CurrentStage      models.OutpassStage  `json:"current_stage"`
	CurrentStageLabel string               `json:"current_stage_label"`
	Stages            []StageView          `json:"stages"`
	Trail             []string             `json:"trail"`
	SubmittedAt       time.Time            `json:"submitted_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// ActOutpassResponse is returned after an approver decision.
type ActOutpassResponse struct {
	Message string       `json:"message"`
	Outpass *OutpassView `json:"outpass"`
}

// StudentSummary identifies the requester on approver screens.
type StudentSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RegNo      string `json:"reg_no"`
	Department string `json:"department"`
	Year       int    `json:"year"`
	Section    string `json:"section"`
	Hostel     string `json:"hostel,omitempty"`
}

// PendingOutpassView is a queue entry for an approver. CanApprove is advisory only.
type PendingOutpassView struct {
	OutpassView
	Student        StudentSummary             `json:"student"`
	Attendance     []models.SubjectAttendance `json:"attendance_summary"`
	LowAttendance  []models.ShortfallSubject  `json:"low_attendance"`
	ShortfallCount int                        `json:"shortfall_count"`
	CanApprove     bool                       `json:"can_approve"`
}

// GatePassLink points at a signed gate pass download.
type GatePassLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
