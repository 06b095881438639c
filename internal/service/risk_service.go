package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
)

const (
	riskDecisionApprove = "AUTO-APPROVE"
	riskDecisionReview  = "REVIEW"
	riskDecisionFlag    = "FLAG"

	maxRiskScore = 10
)

var (
	medicalKeywords  = []string{"hospital", "doctor", "clinic", "medical", "emergency", "dentist", "health", "pharmacy"}
	academicKeywords = []string{"library", "project", "internship", "seminar", "workshop", "conference", "lab"}
	familyKeywords   = []string{"family", "home", "parents", "wedding", "function", "festival"}
	leisureKeywords  = []string{"outing", "fun", "shopping", "movie", "mall", "party", "roam"}
)

// RiskService scores prospective outpasses. The result is advisory and never touches a request.
type RiskService struct {
	shortfall shortfallProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRiskService constructs the advisor. shortfall may be nil, in which case attendance is ignored.
func NewRiskService(shortfall shortfallProvider, validate *validator.Validate, logger *zap.Logger) *RiskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RiskService{shortfall: shortfall, validator: validate, logger: logger}
}

// Assess scores timing, reason and attendance into a decision.
func (s *RiskService) Assess(ctx context.Context, req dto.RiskCheckRequest) (*dto.RiskAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid risk check payload")
	}

	var (
		score     int
		flags     = make([]string, 0)
		positives = make([]string, 0)
	)

	hour := outHour(req.OutTime)
	switch {
	case hour < 6:
		score += 4
		flags = append(flags, "Very early hours before 6 AM")
	case hour >= 21:
		score += 3
		flags = append(flags, "Late night request after 9 PM - warden approval required")
	default:
		positives = append(positives, "Request during safe hours (6 AM - 9 PM)")
	}

	reason := strings.ToLower(req.Reason)
	destination := strings.ToLower(req.Destination)
	switch {
	case containsAny(reason+destination, medicalKeywords):
		score--
		positives = append(positives, "Medical reason - valid and important")
	case containsAny(reason, academicKeywords):
		positives = append(positives, "Academic reason - supports studies")
	case containsAny(reason, familyKeywords):
		positives = append(positives, "Family reason - personal but valid")
	case containsAny(reason, leisureKeywords):
		score += 2
		flags = append(flags, "Reason appears non-essential (leisure)")
	default:
		score++
		flags = append(flags, "Reason is vague - more details needed")
	}

	studentID := strings.TrimSpace(req.StudentID)
	if studentID != "" && s.shortfall != nil {
		shortfall, err := s.shortfall.Shortfall(ctx, studentID)
		if err != nil {
			return nil, err
		}
		low := shortfall.Count()
		switch {
		case low >= 3:
			score += 3
			flags = append(flags, fmt.Sprintf("%d subjects below %.0f%% - leaving will worsen attendance", low, shortfall.Threshold))
		case low >= 1:
			score++
			flags = append(flags, fmt.Sprintf("%d subject(s) below %.0f%%", low, shortfall.Threshold))
		default:
			positives = append(positives, "Student has good attendance in all subjects")
		}
	}

	if score < 0 {
		score = 0
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}

	result := &dto.RiskAssessment{Score: score, Flags: flags, Positives: positives}
	switch {
	case score <= 2:
		result.Decision, result.RiskLevel, result.Color = riskDecisionApprove, "Low", "green"
		result.Recommendation = "LOW RISK - Recommend approval. Valid reason and safe timing."
	case score <= 5:
		result.Decision, result.RiskLevel, result.Color = riskDecisionReview, "Moderate", "orange"
		result.Recommendation = "MODERATE RISK - Manual review recommended before approving."
	default:
		result.Decision, result.RiskLevel, result.Color = riskDecisionFlag, "High", "red"
		result.Recommendation = "HIGH RISK - Flag this request. Multiple concerns detected."
	}

	s.logger.Debug("outpass risk assessed", zap.Int("score", score), zap.String("decision", result.Decision))
	return result, nil
}

// outHour reads the hour of an HH:MM time, defaulting to noon.
func outHour(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 12
	}
	hourPart, _, _ := strings.Cut(raw, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return 12
	}
	return hour
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
