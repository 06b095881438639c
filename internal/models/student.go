package models

import "time"

// StudentProfile is the read-only view of a student used by the outpass workflow.
// Hostel is empty for day scholars.
type StudentProfile struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	RegNo      string    `db:"reg_no" json:"reg_no"`
	FullName   string    `db:"full_name" json:"full_name"`
	Department string    `db:"department" json:"department"`
	Year       int       `db:"year" json:"year"`
	Semester   int       `db:"semester" json:"semester"`
	Section    string    `db:"section" json:"section"`
	Hostel     string    `db:"hostel" json:"hostel,omitempty"`
	IsResident bool      `db:"is_resident" json:"is_resident"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
