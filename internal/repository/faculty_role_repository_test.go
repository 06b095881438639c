package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

func TestFacultyRoleRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newOutpassMock(t)
	defer cleanup()
	repo := NewFacultyRoleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.user_id = $1")).
		WithArgs("teacher-user").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role_type", "role_name", "department", "hostel"}).
			AddRow("r1", "teacher-user", "FACULTY_ADVISOR", "Advisor CSE-3A", "CSE", "").
			AddRow("r2", "teacher-user", "WARDEN", "Warden Block A", "", "Block A"))

	roles, err := repo.ListByUser(context.Background(), "teacher-user")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, models.FacultyRoleAdvisor, roles[0].RoleType)
	assert.Equal(t, "Block A", roles[1].Hostel)
}

func TestFacultyRoleRepositoryListByUserError(t *testing.T) {
	db, mock, cleanup := newOutpassMock(t)
	defer cleanup()
	repo := NewFacultyRoleRepository(db)

	mock.ExpectQuery("FROM faculty_roles").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByUser(context.Background(), "teacher-user")
	require.Error(t, err)
}
