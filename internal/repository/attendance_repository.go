package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// AttendanceRepository reads per-subject attendance summaries.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByStudent returns the student's attendance per subject, ordered by subject code.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SubjectAttendance, error) {
	const query = `SELECT student_id, subject_code, subject_name, total_classes, attended_classes, percentage
	FROM attendance WHERE student_id = $1 ORDER BY subject_code`
	var rows []models.SubjectAttendance
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list attendance summary: %w", err)
	}
	return rows, nil
}
