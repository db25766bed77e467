package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/campushub/college-api/internal/models"
)

// fakeStore is an in-memory attendance store keyed by (student, subject, date).
type fakeStore struct {
	records map[string]models.AttendanceRecord
	names   map[string]string
	failAll bool
	writes  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]models.AttendanceRecord{}, names: map[string]string{}}
}

func storeKey(studentID, subjectCode string, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", studentID, subjectCode, date.Format("2006-01-02"))
}

func (f *fakeStore) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failAll {
		return fmt.Errorf("store down")
	}
	now := time.Now().UTC()
	for _, rec := range records {
		key := storeKey(rec.StudentID, rec.SubjectCode, rec.Date)
		if existing, ok := f.records[key]; ok {
			existing.Status = rec.Status
			existing.MarkedBy = rec.MarkedBy
			existing.UpdatedAt = now
			f.records[key] = existing
		} else {
			rec.CreatedAt = now
			rec.UpdatedAt = now
			f.records[key] = rec
		}
		f.writes++
	}
	return nil
}

func (f *fakeStore) FindByStudent(_ context.Context, studentID, subjectCode string) ([]models.AttendanceRecord, error) {
	if f.failAll {
		return nil, fmt.Errorf("store down")
	}
	var out []models.AttendanceRecord
	for _, rec := range f.records {
		if rec.StudentID != studentID {
			continue
		}
		if subjectCode != "" && rec.SubjectCode != subjectCode {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStore) FindBySubject(_ context.Context, subjectCode string, date *time.Time) ([]models.SessionRecord, error) {
	if f.failAll {
		return nil, fmt.Errorf("store down")
	}
	var out []models.SessionRecord
	for _, rec := range f.records {
		if rec.SubjectCode != subjectCode {
			continue
		}
		if date != nil && !rec.Date.Equal(*date) {
			continue
		}
		out = append(out, models.SessionRecord{
			StudentID:   rec.StudentID,
			StudentName: f.names[rec.StudentID],
			Date:        rec.Date,
			Status:      rec.Status,
			MarkedBy:    rec.MarkedBy,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

// fakeDirectory is an in-memory enrollment/teaching directory.
type fakeDirectory struct {
	subjects    map[string]models.Subject
	enrollments map[string][]string // subject code -> student ids
	teaching    map[string][]string // faculty id -> subject codes
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		subjects:    map[string]models.Subject{},
		enrollments: map[string][]string{},
		teaching:    map[string][]string{},
	}
}

func (f *fakeDirectory) addSubject(code, name string, students ...string) {
	f.subjects[code] = models.Subject{Code: code, Name: name}
	f.enrollments[code] = append(f.enrollments[code], students...)
}

func (f *fakeDirectory) assign(facultyID string, codes ...string) {
	f.teaching[facultyID] = append(f.teaching[facultyID], codes...)
}

func (f *fakeDirectory) EnrolledStudents(_ context.Context, subjectCode string) ([]string, error) {
	return f.enrollments[subjectCode], nil
}

func (f *fakeDirectory) SubjectsForStudent(_ context.Context, studentID string) ([]models.Subject, error) {
	var out []models.Subject
	var codes []string
	for code, students := range f.enrollments {
		for _, id := range students {
			if id == studentID {
				codes = append(codes, code)
				break
			}
		}
	}
	sort.Strings(codes)
	for _, code := range codes {
		out = append(out, f.subjects[code])
	}
	return out, nil
}

func (f *fakeDirectory) SubjectByCode(_ context.Context, code string) (*models.Subject, error) {
	if subject, ok := f.subjects[code]; ok {
		return &subject, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDirectory) Teaches(_ context.Context, facultyID, subjectCode string) (bool, error) {
	for _, code := range f.teaching[facultyID] {
		if code == subjectCode {
			return true, nil
		}
	}
	return false, nil
}
