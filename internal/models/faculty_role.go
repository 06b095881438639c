package models

// FacultyRoleType names an approval duty a faculty member can hold.
type FacultyRoleType string

const (
	FacultyRoleAdvisor           FacultyRoleType = "FACULTY_ADVISOR"
	FacultyRoleHostelCoordinator FacultyRoleType = "HOSTEL_COORDINATOR"
	FacultyRoleHOD               FacultyRoleType = "HOD"
	FacultyRoleWarden            FacultyRoleType = "WARDEN"
)

// FacultyRole grants a teacher one approval duty, scoped to a department or a hostel.
type FacultyRole struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	RoleType   FacultyRoleType `db:"role_type" json:"role_type"`
	RoleName   string          `db:"role_name" json:"role_name"`
	Department string          `db:"department" json:"department,omitempty"`
	Hostel     string          `db:"hostel" json:"hostel,omitempty"`
}
