package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/college-api/internal/models"
	appErrors "github.com/campushub/college-api/pkg/errors"
)

type attendanceReader interface {
	FindByStudent(ctx context.Context, studentID, subjectCode string) ([]models.AttendanceRecord, error)
	FindBySubject(ctx context.Context, subjectCode string, date *time.Time) ([]models.SessionRecord, error)
}

type subjectDirectory interface {
	SubjectsForStudent(ctx context.Context, studentID string) ([]models.Subject, error)
	SubjectByCode(ctx context.Context, code string) (*models.Subject, error)
}

// AttendanceAggregator computes derived summaries from stored records. It
// never mutates state; every summary is materialized fully per request.
type AttendanceAggregator struct {
	store     attendanceReader
	directory subjectDirectory
	logger    *zap.Logger
}

// NewAttendanceAggregator constructs the aggregator.
func NewAttendanceAggregator(store attendanceReader, directory subjectDirectory, logger *zap.Logger) *AttendanceAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceAggregator{store: store, directory: directory, logger: logger}
}

// SummarizeSubject computes present/total/percent for one student and subject.
// Zero records yields percent 0, never NaN or an error.
func (a *AttendanceAggregator) SummarizeSubject(ctx context.Context, studentID, subjectCode string) (*models.SubjectAttendanceSummary, error) {
	subject, err := a.directory.SubjectByCode(ctx, subjectCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "directory unavailable")
	}

	records, err := a.store.FindByStudent(ctx, studentID, subjectCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read attendance")
	}

	summary := buildSubjectSummary(*subject, records)
	return &summary, nil
}

// SummarizeAll computes one summary per enrolled subject. Subjects with no
// marked sessions still appear with zero counts so dashboards show the full
// enrollment. Aggregate totals are sums across subjects and the overall
// percent comes from those sums, not from averaging per-subject percentages.
func (a *AttendanceAggregator) SummarizeAll(ctx context.Context, studentID string) (*models.OverallAttendanceSummary, error) {
	subjects, err := a.directory.SubjectsForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "directory unavailable")
	}

	records, err := a.store.FindByStudent(ctx, studentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read attendance")
	}

	bySubject := make(map[string][]models.AttendanceRecord, len(subjects))
	for _, rec := range records {
		bySubject[rec.SubjectCode] = append(bySubject[rec.SubjectCode], rec)
	}

	overall := &models.OverallAttendanceSummary{Subjects: make([]models.SubjectAttendanceSummary, 0, len(subjects))}
	for _, subject := range subjects {
		summary := buildSubjectSummary(subject, bySubject[subject.Code])
		overall.Subjects = append(overall.Subjects, summary)
		overall.TotalPresent += summary.Present
		overall.TotalClasses += summary.Total
	}
	overall.Percent = percentage(overall.TotalPresent, overall.TotalClasses)

	return overall, nil
}

// SubjectRoster returns the session records for a subject, optionally limited
// to one date.
func (a *AttendanceAggregator) SubjectRoster(ctx context.Context, subjectCode string, date *time.Time) ([]models.SessionRecord, error) {
	if _, err := a.directory.SubjectByCode(ctx, subjectCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "directory unavailable")
	}

	rows, err := a.store.FindBySubject(ctx, subjectCode, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read session records")
	}
	return rows, nil
}

func buildSubjectSummary(subject models.Subject, records []models.AttendanceRecord) models.SubjectAttendanceSummary {
	summary := models.SubjectAttendanceSummary{
		SubjectCode: subject.Code,
		SubjectName: subject.Name,
		Records:     make([]models.AttendanceEntry, 0, len(records)),
	}
	for _, rec := range records {
		summary.Total++
		if rec.Status == models.AttendanceStatusPresent {
			summary.Present++
		}
		summary.Records = append(summary.Records, models.AttendanceEntry{Date: rec.Date, Status: rec.Status})
	}
	summary.Percent = percentage(summary.Present, summary.Total)
	return summary
}

// percentage rounds half-up to two decimals and returns 0 for an empty total.
func percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*100*100) / 100
}
