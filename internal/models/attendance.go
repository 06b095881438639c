package models

import "math"

// DefaultAttendanceThreshold is the minimum per-subject attendance percentage.
const DefaultAttendanceThreshold = 75.0

// SubjectAttendance summarises one student's attendance in one subject.
type SubjectAttendance struct {
	StudentID       string  `db:"student_id" json:"-"`
	SubjectCode     string  `db:"subject_code" json:"subject_code"`
	SubjectName     string  `db:"subject_name" json:"subject_name"`
	TotalClasses    int     `db:"total_classes" json:"total_classes"`
	AttendedClasses int     `db:"attended_classes" json:"attended_classes"`
	Percentage      float64 `db:"percentage" json:"percentage"`
}

// ClassesNeeded returns how many consecutive classes must be attended to reach threshold.
func (s SubjectAttendance) ClassesNeeded(threshold float64) int {
	if s.Percentage >= threshold || threshold >= 100 {
		return 0
	}
	ratio := threshold / 100
	needed := (ratio*float64(s.TotalClasses) - float64(s.AttendedClasses)) / (1 - ratio)
	if needed < 0 {
		return 0
	}
	return int(math.Floor(needed)) + 1
}

// ShortfallSubject is one subject below the attendance threshold.
type ShortfallSubject struct {
	SubjectCode   string  `json:"subject_code"`
	SubjectName   string  `json:"subject_name"`
	Percentage    float64 `json:"percentage"`
	ClassesNeeded int     `json:"classes_needed"`
}

// AttendanceShortfall is the advisory attendance signal attached to pending requests.
type AttendanceShortfall struct {
	Threshold float64             `json:"threshold"`
	Summary   []SubjectAttendance `json:"summary"`
	Below     []ShortfallSubject  `json:"below"`
}

// Count returns the number of subjects below threshold.
func (a AttendanceShortfall) Count() int {
	return len(a.Below)
}
