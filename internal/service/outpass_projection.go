package service

import (
	"fmt"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// fallback approver names used when a stage was decided without a recorded name.
var trailFallbackNames = map[models.OutpassStage]string{
	models.StageFacultyAdvisor:    "Faculty",
	models.StageHostelCoordinator: "Coordinator",
	models.StageHOD:               "HOD",
	models.StageWarden:            "Warden",
}

// BuildTrail renders one readable line per stage. Stages after a rejection stay Waiting.
func BuildTrail(req models.OutpassRequest) []string {
	trail := make([]string, 0, models.StageCount)
	for i, stage := range models.ApprovalStages {
		state := req.Stages[i]
		name := trailFallbackNames[stage]
		if state.ApproverName != nil && *state.ApproverName != "" {
			name = *state.ApproverName
		}
		switch state.Status {
		case models.StageStatusApproved:
			line := fmt.Sprintf("%s approved (%s)", stage.Label(), name)
			if stage == models.StageWarden {
				line += " - FINAL APPROVED"
			}
			trail = append(trail, line)
		case models.StageStatusRejected:
			trail = append(trail, fmt.Sprintf("%s rejected (%s)", stage.Label(), name))
		default:
			trail = append(trail, "Waiting for "+stage.Label())
		}
	}
	return trail
}

// ActionMessage is the confirmation shown to an approver after a decision.
func ActionMessage(event models.OutpassEvent) string {
	if event.Action == models.OutpassActionReject {
		return fmt.Sprintf("Outpass rejected at %s stage.", event.Stage.Label())
	}
	next, ok := event.Stage.Next()
	if !ok {
		return "FINAL APPROVED by Warden! Outpass granted."
	}
	label := next.Label()
	if next == models.StageWarden {
		label = "Hostel Warden"
	}
	return fmt.Sprintf("Approved! Moved to %s.", label)
}

func toOutpassView(req models.OutpassRequest) *dto.OutpassView {
	stages := make([]dto.StageView, 0, models.StageCount)
	for i, stage := range models.ApprovalStages {
		state := req.Stages[i]
		stages = append(stages, dto.StageView{
			Stage:        stage,
			Label:        stage.Label(),
			Status:       state.Status,
			ApproverName: state.ApproverName,
			ActedAt:      state.ActedAt,
		})
	}
	return &dto.OutpassView{
		ID:                req.ID,
		StudentID:         req.StudentID,
		Reason:            req.Reason,
		Destination:       req.Destination,
		OutDate:           req.OutDate,
		OutTime:           req.OutTime,
		ReturnDate:        req.ReturnDate,
		ReturnTime:        req.ReturnTime,
		OverallStatus:     req.OverallStatus,
		CurrentStage:      req.CurrentStage,
		CurrentStageLabel: req.CurrentStage.Label(),
		Stages:            stages,
		Trail:             BuildTrail(req),
		SubmittedAt:       req.SubmittedAt,
		UpdatedAt:         req.UpdatedAt,
	}
}

func toPendingView(item models.PendingOutpass, shortfall models.AttendanceShortfall) dto.PendingOutpassView {
	return dto.PendingOutpassView{
		OutpassView: *toOutpassView(item.Request),
		Student: dto.StudentSummary{
			ID:         item.Student.ID,
			Name:       item.Student.FullName,
			RegNo:      item.Student.RegNo,
			Department: item.Student.Department,
			Year:       item.Student.Year,
			Section:    item.Student.Section,
			Hostel:     item.Student.Hostel,
		},
		Attendance:     shortfall.Summary,
		LowAttendance:  shortfall.Below,
		ShortfallCount: shortfall.Count(),
		CanApprove:     shortfall.Count() == 0,
	}
}
