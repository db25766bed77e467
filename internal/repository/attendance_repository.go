package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/college-api/internal/models"
)

// AttendanceRepository persists attendance marks in PostgreSQL. One row exists
// per (student_id, subject_code, date); upserts replace status, marked_by and
// updated_at in place.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const upsertQuery = `INSERT INTO attendance_records (id, student_id, subject_code, date, status, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_id, subject_code, date)
DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at
RETURNING id, student_id, subject_code, date, status, marked_by, created_at, updated_at`

// Upsert writes one mark, replacing any existing row for the same key. The
// ON CONFLICT clause makes concurrent upserts to the same key resolve
// last-write-wins without lost updates.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, upsertQuery,
		record.ID, record.StudentID, record.SubjectCode, record.Date,
		record.Status, record.MarkedBy, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance record: %w", err)
	}
	return &stored, nil
}

// BulkUpsert writes a whole session batch inside one transaction. A failure on
// any row rolls back the entire batch, so concurrent readers of the session
// see either none or all of its records.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance batch: %w", err)
	}

	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, upsertQuery,
			rec.ID, rec.StudentID, rec.SubjectCode, rec.Date,
			rec.Status, rec.MarkedBy, rec.CreatedAt, rec.UpdatedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert attendance batch row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance batch: %w", err)
	}
	return nil
}

// FindByStudent returns a student's records ordered by date ascending,
// optionally filtered to one subject. No matches yields an empty slice,
// never an error.
func (r *AttendanceRepository) FindByStudent(ctx context.Context, studentID, subjectCode string) ([]models.AttendanceRecord, error) {
	query := `SELECT id, student_id, subject_code, date, status, marked_by, created_at, updated_at
FROM attendance_records WHERE student_id = $1`
	args := []interface{}{studentID}
	if subjectCode != "" {
		query += " AND subject_code = $2"
		args = append(args, subjectCode)
	}
	query += " ORDER BY date ASC"

	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("find attendance by student: %w", err)
	}
	return records, nil
}

// FindBySubject returns roster rows for a subject, optionally restricted to a
// single session date, ordered by date then student name.
func (r *AttendanceRepository) FindBySubject(ctx context.Context, subjectCode string, date *time.Time) ([]models.SessionRecord, error) {
	query := `SELECT a.student_id, s.full_name AS student_name, a.date, a.status, a.marked_by
FROM attendance_records a
JOIN students s ON s.id = a.student_id
WHERE a.subject_code = $1`
	args := []interface{}{subjectCode}
	if date != nil {
		query += " AND a.date = $2"
		args = append(args, *date)
	}
	query += " ORDER BY a.date ASC, s.full_name ASC"

	rows := []models.SessionRecord{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find attendance by subject: %w", err)
	}
	return rows, nil
}
