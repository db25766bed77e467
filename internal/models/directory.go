package models

// Subject is a directory entry resolved from the enrollment collaborator.
type Subject struct {
	Code string `db:"code" json:"subjectCode"`
	Name string `db:"name" json:"subjectName"`
}
