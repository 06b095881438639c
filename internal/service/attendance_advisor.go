package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
)

type attendanceReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.SubjectAttendance, error)
}

// AttendanceAdvisor computes the advisory attendance shortfall shown to approvers.
type AttendanceAdvisor struct {
	repo      attendanceReader
	cache     *CacheService
	threshold float64
	logger    *zap.Logger
}

// NewAttendanceAdvisor constructs the advisor. A threshold outside (0, 100] falls back to 75.
func NewAttendanceAdvisor(repo attendanceReader, cache *CacheService, threshold float64, logger *zap.Logger) *AttendanceAdvisor {
	if threshold <= 0 || threshold > 100 {
		threshold = models.DefaultAttendanceThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceAdvisor{repo: repo, cache: cache, threshold: threshold, logger: logger}
}

func shortfallCacheKey(studentID string) string {
	return "shortfall:" + studentID
}

// Shortfall returns the student's attendance summary and the subjects below threshold.
func (a *AttendanceAdvisor) Shortfall(ctx context.Context, studentID string) (models.AttendanceShortfall, error) {
	var cached models.AttendanceShortfall
	if a.cache.Get(ctx, shortfallCacheKey(studentID), &cached) {
		return cached, nil
	}

	rows, err := a.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return models.AttendanceShortfall{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	result := models.AttendanceShortfall{
		Threshold: a.threshold,
		Summary:   rows,
		Below:     make([]models.ShortfallSubject, 0),
	}
	if result.Summary == nil {
		result.Summary = make([]models.SubjectAttendance, 0)
	}
	for _, row := range rows {
		if row.Percentage < a.threshold {
			result.Below = append(result.Below, models.ShortfallSubject{
				SubjectCode:   row.SubjectCode,
				SubjectName:   row.SubjectName,
				Percentage:    row.Percentage,
				ClassesNeeded: row.ClassesNeeded(a.threshold),
			})
		}
	}

	a.cache.Set(ctx, shortfallCacheKey(studentID), result, 0)
	return result, nil
}
