package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/college-api/internal/models"
)

// DirectoryRepository is the PostgreSQL adapter for the enrollment directory:
// which subjects a student takes and which subjects a faculty member teaches.
// The directory itself is maintained by the admin CRUD surface outside this
// service; this adapter only reads it.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// SubjectsForStudent lists every subject the student is enrolled in, ordered
// by subject code for stable dashboards.
func (r *DirectoryRepository) SubjectsForStudent(ctx context.Context, studentID string) ([]models.Subject, error) {
	query := `SELECT sub.code, sub.name
FROM enrollments e
JOIN subjects sub ON sub.code = e.subject_code
WHERE e.student_id = $1
ORDER BY sub.code ASC`

	subjects := []models.Subject{}
	if err := r.db.SelectContext(ctx, &subjects, query, studentID); err != nil {
		return nil, fmt.Errorf("subjects for student: %w", err)
	}
	return subjects, nil
}

// EnrolledStudents returns the ids of every student enrolled in the subject.
func (r *DirectoryRepository) EnrolledStudents(ctx context.Context, subjectCode string) ([]string, error) {
	query := `SELECT e.student_id FROM enrollments e WHERE e.subject_code = $1`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, subjectCode); err != nil {
		return nil, fmt.Errorf("enrolled students: %w", err)
	}
	return ids, nil
}

// Teaches reports whether the faculty member is assigned to the subject.
func (r *DirectoryRepository) Teaches(ctx context.Context, facultyID, subjectCode string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM faculty_subjects WHERE faculty_id = $1 AND subject_code = $2)`

	var teaches bool
	if err := r.db.GetContext(ctx, &teaches, query, facultyID, subjectCode); err != nil {
		return false, fmt.Errorf("faculty teaches subject: %w", err)
	}
	return teaches, nil
}

// SubjectByCode resolves one subject directory entry. A missing subject
// returns sql.ErrNoRows for the caller to translate.
func (r *DirectoryRepository) SubjectByCode(ctx context.Context, code string) (*models.Subject, error) {
	query := `SELECT code, name FROM subjects WHERE code = $1`

	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("subject by code: %w", err)
	}
	return &subject, nil
}
