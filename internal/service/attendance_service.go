package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/college-api/internal/dto"
	"github.com/campushub/college-api/internal/models"
	"github.com/campushub/college-api/pkg/export"
	appErrors "github.com/campushub/college-api/pkg/errors"
)

// AttendanceService is the single entry point the HTTP layer invokes. Every
// operation runs gate → recorder/aggregator; authorization failures
// short-circuit before the store is touched.
type AttendanceService struct {
	gate       *AccessGate
	recorder   *AttendanceRecorder
	aggregator *AttendanceAggregator
	cache      *CacheService
	metrics    *MetricsService
	warmer     *SummaryWarmer
	logger     *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(gate *AccessGate, recorder *AttendanceRecorder, aggregator *AttendanceAggregator, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{gate: gate, recorder: recorder, aggregator: aggregator, cache: cache, metrics: metrics, logger: logger}
}

// UseSummaryWarmer enables background cache warming after marks land.
func (s *AttendanceService) UseSummaryWarmer(warmer *SummaryWarmer) {
	s.warmer = warmer
}

func summaryCacheKey(studentID string) string {
	return fmt.Sprintf("attendance:summary:%s", studentID)
}

// MyAttendance returns the overall summary for the requested student. A
// student may only request their own; admins may request anyone's.
func (s *AttendanceService) MyAttendance(ctx context.Context, claims *models.TokenClaims, studentID string) (*models.OverallAttendanceSummary, error) {
	if studentID == "" {
		studentID = claims.IdentityID
	}
	if err := s.gate.Authorize(ctx, claims, OpViewSummary, Target{StudentID: studentID}); err != nil {
		return nil, err
	}

	key := summaryCacheKey(studentID)
	var cached models.OverallAttendanceSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	summary, err := s.aggregator.SummarizeAll(ctx, studentID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, summary, 0)
	return summary, nil
}

// SubjectSummary returns one student's summary for a single subject, scoped
// by the same policy as MyAttendance plus faculty access to taught subjects.
func (s *AttendanceService) SubjectSummary(ctx context.Context, claims *models.TokenClaims, studentID, subjectCode string) (*models.SubjectAttendanceSummary, error) {
	if studentID == "" {
		studentID = claims.IdentityID
	}
	if err := s.gate.Authorize(ctx, claims, OpViewSummary, Target{StudentID: studentID, SubjectCode: subjectCode}); err != nil {
		return nil, err
	}
	return s.aggregator.SummarizeSubject(ctx, studentID, subjectCode)
}

// Mark writes a session batch under faculty or admin authority, then drops
// stale cached summaries for every student in the batch so the next read
// observes the new marks.
func (s *AttendanceService) Mark(ctx context.Context, claims *models.TokenClaims, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error) {
	if err := s.gate.Authorize(ctx, claims, OpMarkAttendance, Target{SubjectCode: req.SubjectCode}); err != nil {
		return nil, err
	}

	marked, err := s.recorder.MarkSession(ctx, req, claims.IdentityID)
	if err != nil {
		return nil, err
	}

	for _, mark := range req.Marks {
		_ = s.cache.Invalidate(ctx, summaryCacheKey(mark.StudentID))
		s.warmer.Warm(mark.StudentID)
	}
	s.metrics.ObserveMarks(req.SubjectCode, marked)
	s.logger.Info("attendance marked",
		zap.String("subject_code", req.SubjectCode),
		zap.String("date", req.Date),
		zap.String("marked_by", claims.IdentityID),
		zap.Int("records", marked))

	return &dto.MarkAttendanceResponse{SubjectCode: req.SubjectCode, Date: req.Date, Marked: marked}, nil
}

// SubjectRoster returns the session records for a subject, optionally for one
// date, to faculty teaching it or admins.
func (s *AttendanceService) SubjectRoster(ctx context.Context, claims *models.TokenClaims, subjectCode string, date *time.Time) ([]models.SessionRecord, error) {
	if err := s.gate.Authorize(ctx, claims, OpViewRoster, Target{SubjectCode: subjectCode}); err != nil {
		return nil, err
	}
	return s.aggregator.SubjectRoster(ctx, subjectCode, date)
}

// ExportRoster renders the subject roster as a downloadable CSV or PDF.
func (s *AttendanceService) ExportRoster(ctx context.Context, claims *models.TokenClaims, subjectCode string, date *time.Time, format string) ([]byte, string, string, error) {
	rows, err := s.SubjectRoster(ctx, claims, subjectCode, date)
	if err != nil {
		return nil, "", "", err
	}

	table := export.Table{
		Title:   fmt.Sprintf("%s attendance", subjectCode),
		Headers: []string{"Student ID", "Student Name", "Date", "Status", "Marked By"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			row.StudentID,
			row.StudentName,
			row.Date.Format("2006-01-02"),
			string(row.Status),
			row.MarkedBy,
		})
	}

	switch format {
	case "csv", "":
		payload, err := export.CSV(table)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", fmt.Sprintf("%s-attendance.csv", subjectCode), nil
	case "pdf":
		payload, err := export.PDF(table)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", fmt.Sprintf("%s-attendance.pdf", subjectCode), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
