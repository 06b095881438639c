package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studentProfileRowColumns = []string{"id", "user_id", "reg_no", "full_name", "department", "year", "semester", "section", "hostel", "is_resident", "active", "created_at"}

func TestStudentRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newOutpassMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(studentProfileRowColumns).
			AddRow("student-1", "user-1", "21CS001", "Asha", "CSE", 3, 5, "A", "Block A", true, true, time.Now()))

	profile, err := repo.FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "student-1", profile.ID)
	assert.True(t, profile.IsResident)
	assert.Equal(t, "Block A", profile.Hostel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newOutpassMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
