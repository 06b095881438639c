package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

const studentProfileColumns = `id, user_id, reg_no, full_name, department, year, semester, section,
	COALESCE(hostel, '') AS hostel, is_resident, active, created_at`

// StudentRepository reads student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns the student with the given id. A missing row is reported as sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	return r.findOne(ctx, `SELECT `+studentProfileColumns+` FROM students WHERE id = $1`, id)
}

// FindByUserID returns the student linked to a login account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	return r.findOne(ctx, `SELECT `+studentProfileColumns+` FROM students WHERE user_id = $1`, userID)
}

func (r *StudentRepository) findOne(ctx context.Context, query string, arg string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student profile: %w", err)
	}
	return &profile, nil
}
