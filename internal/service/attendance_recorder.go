package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/college-api/internal/dto"
	"github.com/campushub/college-api/internal/models"
	appErrors "github.com/campushub/college-api/pkg/errors"
)

type attendanceWriter interface {
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
}

type enrollmentDirectory interface {
	EnrolledStudents(ctx context.Context, subjectCode string) ([]string, error)
}

// AttendanceRecorder validates and persists session marking batches. A batch
// is atomic: validation runs fully before any write, and the write itself is
// one transaction, so an abort leaves no trace.
type AttendanceRecorder struct {
	store     attendanceWriter
	directory enrollmentDirectory
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceRecorder constructs the recorder.
func NewAttendanceRecorder(store attendanceWriter, directory enrollmentDirectory, validate *validator.Validate, logger *zap.Logger) *AttendanceRecorder {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceRecorder{store: store, directory: directory, validator: validate, logger: logger, now: time.Now}
}

// MarkSession validates the batch and writes every mark with markedBy set to
// the acting identity. Returns the number of records written.
func (r *AttendanceRecorder) MarkSession(ctx context.Context, req dto.MarkAttendanceRequest, markedBy string) (int, error) {
	if err := r.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marking payload")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrInvalidDate, "invalid date format, expected YYYY-MM-DD")
	}
	today := r.now().UTC().Truncate(24 * time.Hour)
	if date.After(today) {
		return 0, appErrors.Clone(appErrors.ErrInvalidDate, "attendance date cannot be in the future")
	}

	enrolled, err := r.directory.EnrolledStudents(ctx, req.SubjectCode)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "directory unavailable")
	}
	enrolledSet := make(map[string]struct{}, len(enrolled))
	for _, id := range enrolled {
		enrolledSet[id] = struct{}{}
	}

	var unenrolled []string
	seen := make(map[string]struct{}, len(req.Marks))
	for _, mark := range req.Marks {
		if _, dup := seen[mark.StudentID]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate student %s in batch", mark.StudentID))
		}
		seen[mark.StudentID] = struct{}{}
		if _, ok := enrolledSet[mark.StudentID]; !ok {
			unenrolled = append(unenrolled, mark.StudentID)
		}
	}
	if len(unenrolled) > 0 {
		// whole batch rejected, every offender named
		sort.Strings(unenrolled)
		return 0, appErrors.Clone(appErrors.ErrUnenrolled,
			fmt.Sprintf("students not enrolled in %s: %s", req.SubjectCode, strings.Join(unenrolled, ", ")))
	}

	for _, mark := range req.Marks {
		if !models.AttendanceStatus(mark.Status).Valid() {
			return 0, appErrors.Clone(appErrors.ErrInvalidStatus,
				fmt.Sprintf("status %q is not one of present, absent", mark.Status))
		}
	}

	records := make([]models.AttendanceRecord, len(req.Marks))
	for i, mark := range req.Marks {
		records[i] = models.AttendanceRecord{
			StudentID:   mark.StudentID,
			SubjectCode: req.SubjectCode,
			Date:        date,
			Status:      models.AttendanceStatus(mark.Status),
			MarkedBy:    markedBy,
		}
	}

	if err := r.store.BulkUpsert(ctx, records); err != nil {
		r.logger.Error("attendance batch write failed",
			zap.String("subject_code", req.SubjectCode),
			zap.String("date", req.Date),
			zap.Error(err))
		return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to write attendance batch")
	}

	return len(records), nil
}
