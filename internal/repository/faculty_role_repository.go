package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// FacultyRoleRepository reads approval duties assigned to faculty accounts.
type FacultyRoleRepository struct {
	db *sqlx.DB
}

// NewFacultyRoleRepository constructs the repository.
func NewFacultyRoleRepository(db *sqlx.DB) *FacultyRoleRepository {
	return &FacultyRoleRepository{db: db}
}

// ListByUser returns every role held by the given user account.
func (r *FacultyRoleRepository) ListByUser(ctx context.Context, userID string) ([]models.FacultyRole, error) {
	const query = `SELECT fr.id, t.user_id, fr.role_type, fr.role_name,
	COALESCE(fr.department, '') AS department, COALESCE(fr.hostel, '') AS hostel
FROM faculty_roles fr
JOIN teachers t ON t.id = fr.teacher_id
WHERE t.user_id = $1
ORDER BY fr.role_type`
	var roles []models.FacultyRole
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("list faculty roles: %w", err)
	}
	return roles, nil
}
