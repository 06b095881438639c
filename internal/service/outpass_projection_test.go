package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

func strPtr(s string) *string { return &s }

func TestBuildTrailListsEveryStageAfterRejection(t *testing.T) {
	req := models.OutpassRequest{OverallStatus: models.OutpassStatusRejected}
	req.Stages[0] = models.StageState{Status: models.StageStatusRejected, ApproverName: strPtr("Dr A")}
	for i := 1; i < models.StageCount; i++ {
		req.Stages[i] = models.StageState{Status: models.StageStatusWaiting}
	}

	assert.Equal(t, []string{
		"Faculty Advisor rejected (Dr A)",
		"Waiting for Hostel Coordinator",
		"Waiting for HOD",
		"Waiting for Warden",
	}, BuildTrail(req))
}

func TestBuildTrailFallbackNamesAndFinalSuffix(t *testing.T) {
	req := models.OutpassRequest{OverallStatus: models.OutpassStatusApproved}
	for i := range req.Stages {
		req.Stages[i] = models.StageState{Status: models.StageStatusApproved}
	}

	trail := BuildTrail(req)
	assert.Len(t, trail, models.StageCount)
	assert.Equal(t, "Faculty Advisor approved (Faculty)", trail[0])
	assert.Equal(t, "Warden approved (Warden) - FINAL APPROVED", trail[3])
}
