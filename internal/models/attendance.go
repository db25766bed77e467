package models

import "time"

// AttendanceStatus is the mark recorded for a student in one session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one stored mark for a student, subject and calendar date.
// At most one record exists per (student_id, subject_code, date).
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"studentId"`
	SubjectCode string           `db:"subject_code" json:"subjectCode"`
	Date        time.Time        `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	MarkedBy    string           `db:"marked_by" json:"markedBy"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceEntry is the per-date view embedded in summaries.
type AttendanceEntry struct {
	Date   time.Time        `json:"date"`
	Status AttendanceStatus `json:"status"`
}

// SubjectAttendanceSummary is the derived present/total/percent view for one
// student and subject. It is computed on read and never persisted.
type SubjectAttendanceSummary struct {
	SubjectCode string            `json:"subjectCode"`
	SubjectName string            `json:"subjectName"`
	Present     int               `json:"present"`
	Total       int               `json:"total"`
	Percent     float64           `json:"percent"`
	Records     []AttendanceEntry `json:"records"`
}

// OverallAttendanceSummary aggregates every enrolled subject for a student.
// TotalPresent and TotalClasses are sums across subjects; Percent is computed
// from those sums, not averaged over per-subject percentages.
type OverallAttendanceSummary struct {
	Subjects     []SubjectAttendanceSummary `json:"subjects"`
	TotalPresent int                        `json:"totalPresent"`
	TotalClasses int                        `json:"totalClasses"`
	Percent      float64                    `json:"percent"`
}

// SessionRecord is one roster row for a subject on one date.
type SessionRecord struct {
	StudentID   string           `db:"student_id" json:"studentId"`
	StudentName string           `db:"student_name" json:"studentName"`
	Date        time.Time        `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	MarkedBy    string           `db:"marked_by" json:"markedBy"`
}
