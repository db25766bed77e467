package dto

// MarkItem is one (student, status) pair in a marking batch.
type MarkItem struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// MarkAttendanceRequest is the payload faculty submit for one session.
// The batch is atomic: either every mark is written or none is.
type MarkAttendanceRequest struct {
	SubjectCode string     `json:"subjectCode" validate:"required"`
	Date        string     `json:"date" validate:"required"`
	Marks       []MarkItem `json:"marks" validate:"required,min=1,dive"`
}

// MarkAttendanceResponse reports how many records the batch wrote.
type MarkAttendanceResponse struct {
	SubjectCode string `json:"subjectCode"`
	Date        string `json:"date"`
	Marked      int    `json:"marked"`
}
