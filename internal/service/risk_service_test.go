package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

type failingShortfall struct{}

func (failingShortfall) Shortfall(ctx context.Context, studentID string) (models.AttendanceShortfall, error) {
	return models.AttendanceShortfall{}, errors.New("db down")
}

func lowSubjects(n int) models.AttendanceShortfall {
	s := models.AttendanceShortfall{Threshold: 75}
	for i := 0; i < n; i++ {
		s.Below = append(s.Below, models.ShortfallSubject{SubjectCode: "S", Percentage: 60})
	}
	return s
}

func TestRiskServiceAssess(t *testing.T) {
	shortfalls := shortfallStub{
		"good":  lowSubjects(0),
		"one":   lowSubjects(1),
		"three": lowSubjects(3),
	}
	svc := NewRiskService(shortfalls, nil, nil)

	cases := []struct {
		name     string
		req      dto.RiskCheckRequest
		score    int
		decision string
		level    string
		color    string
	}{
		{"medical daytime clamps at zero", dto.RiskCheckRequest{Reason: "Fever", Destination: "Apollo Hospital", OutTime: "10:00"}, 0, "AUTO-APPROVE", "Low", "green"},
		{"academic", dto.RiskCheckRequest{Reason: "Internship interview", OutTime: "09:30"}, 0, "AUTO-APPROVE", "Low", "green"},
		{"vague daytime", dto.RiskCheckRequest{Reason: "need to go", OutTime: "11:00"}, 1, "AUTO-APPROVE", "Low", "green"},
		{"leisure late night", dto.RiskCheckRequest{Reason: "Movie with friends", OutTime: "22:15"}, 5, "REVIEW", "Moderate", "orange"},
		{"vague early with three low subjects", dto.RiskCheckRequest{Reason: "stuff", OutTime: "04:00", StudentID: "three"}, 8, "FLAG", "High", "red"},
		{"leisure early with one low subject", dto.RiskCheckRequest{Reason: "mall", OutTime: "05:59", StudentID: "one"}, 7, "FLAG", "High", "red"},
		{"family with good attendance", dto.RiskCheckRequest{Reason: "Sister wedding", OutTime: "", StudentID: "good"}, 0, "AUTO-APPROVE", "Low", "green"},
		{"unparseable hour defaults to noon", dto.RiskCheckRequest{Reason: "party", OutTime: "late"}, 2, "AUTO-APPROVE", "Low", "green"},
		{"boundary nine pm", dto.RiskCheckRequest{Reason: "library", OutTime: "21:00"}, 3, "REVIEW", "Moderate", "orange"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Assess(context.Background(), tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.score, res.Score)
			assert.Equal(t, tc.decision, res.Decision)
			assert.Equal(t, tc.level, res.RiskLevel)
			assert.Equal(t, tc.color, res.Color)
			assert.NotEmpty(t, res.Recommendation)
		})
	}
}

func TestRiskServiceFactors(t *testing.T) {
	svc := NewRiskService(shortfallStub{"three": lowSubjects(3)}, nil, nil)

	res, err := svc.Assess(context.Background(), dto.RiskCheckRequest{Reason: "shopping", OutTime: "23:00", StudentID: "three"})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Score)
	assert.Equal(t, []string{
		"Late night request after 9 PM - warden approval required",
		"Reason appears non-essential (leisure)",
		"3 subjects below 75% - leaving will worsen attendance",
	}, res.Flags)
	assert.Empty(t, res.Positives)
}

func TestRiskServiceShortfallErrorAndNoStore(t *testing.T) {
	svc := NewRiskService(failingShortfall{}, nil, nil)
	_, err := svc.Assess(context.Background(), dto.RiskCheckRequest{Reason: "doctor", StudentID: "x"})
	require.Error(t, err)

	svc = NewRiskService(nil, nil, nil)
	res, err := svc.Assess(context.Background(), dto.RiskCheckRequest{Reason: "doctor", StudentID: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
}

func TestOutHour(t *testing.T) {
	assert.Equal(t, 12, outHour(""))
	assert.Equal(t, 7, outHour("07:45"))
	assert.Equal(t, 21, outHour("21"))
	assert.Equal(t, 12, outHour("x:10"))
}
