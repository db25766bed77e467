package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/college-api/internal/models"
	appErrors "github.com/campushub/college-api/pkg/errors"
)

func seedRecord(store *fakeStore, studentID, subjectCode, day string, status models.AttendanceStatus) {
	date, _ := time.Parse("2006-01-02", day)
	store.records[storeKey(studentID, subjectCode, date)] = models.AttendanceRecord{
		StudentID:   studentID,
		SubjectCode: subjectCode,
		Date:        date,
		Status:      status,
		MarkedBy:    "f1",
	}
}

func TestAggregatorSummarizeSubject(t *testing.T) {
	store := newFakeStore()
	directory := newFakeDirectory()
	directory.addSubject("CS101", "Data Structures", "s1")
	seedRecord(store, "s1", "CS101", "2024-03-01", models.AttendanceStatusPresent)
	seedRecord(store, "s1", "CS101", "2024-03-02", models.AttendanceStatusPresent)
	seedRecord(store, "s1", "CS101", "2024-03-03", models.AttendanceStatusAbsent)
	aggregator := NewAttendanceAggregator(store, directory, zap.NewNop())

	summary, err := aggregator.SummarizeSubject(context.Background(), "s1", "CS101")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Present)
	assert.Equal(t, 3, summary.Total)
	assert.InDelta(t, 66.67, summary.Percent, 0.001)
	require.Len(t, summary.Records, 3)
	// Date ascending.
	assert.True(t, summary.Records[0].Date.Before(summary.Records[1].Date))
	assert.True(t, summary.Records[1].Date.Before(summary.Records[2].Date))
}

func TestAggregatorZeroRecordsIsZeroPercentNotError(t *testing.T) {
	store := newFakeStore()
	directory := newFakeDirectory()
	directory.addSubject("CS101", "Data Structures", "s1")
	aggregator := NewAttendanceAggregator(store, directory, zap.NewNop())

	summary, err := aggregator.SummarizeSubject(context.Background(), "s1", "CS101")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Present)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0.0, summary.Percent)
}

func TestAggregatorUnknownSubjectIsNotFound(t *testing.T) {
	aggregator := NewAttendanceAggregator(newFakeStore(), newFakeDirectory(), zap.NewNop())

	_, err := aggregator.SummarizeSubject(context.Background(), "s1", "XX999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAggregatorSummarizeAllIncludesUnmarkedSubjects(t *testing.T) {
	store := newFakeStore()
	directory := newFakeDirectory()
	directory.addSubject("CS101", "Data Structures", "s1")
	directory.addSubject("MA102", "Linear Algebra", "s1")
	seedRecord(store, "s1", "CS101", "2024-03-01", models.AttendanceStatusPresent)
	aggregator := NewAttendanceAggregator(store, directory, zap.NewNop())

	overall, err := aggregator.SummarizeAll(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, overall.Subjects, 2)

	// Every enrolled subject appears, marked or not.
	assert.Equal(t, "CS101", overall.Subjects[0].SubjectCode)
	assert.Equal(t, "MA102", overall.Subjects[1].SubjectCode)
	assert.Equal(t, 0, overall.Subjects[1].Total)
	assert.Equal(t, 0.0, overall.Subjects[1].Percent)
}

func TestAggregatorOverallPercentFromSumsNotAverage(t *testing.T) {
	store := newFakeStore()
	directory := newFakeDirectory()
	directory.addSubject("CS101", "Data Structures", "s1")
	directory.addSubject("MA102", "Linear Algebra", "s1")
	// CS101: 1/2 = 50%. MA102: 9/10 = 90%. Mean of percentages would be 70;
	// the correct pooled percent is 10/12 = 83.33.
	seedRecord(store, "s1", "CS101", "2024-01-01", models.AttendanceStatusPresent)
	seedRecord(store, "s1", "CS101", "2024-01-02", models.AttendanceStatusAbsent)
	for day := 1; day <= 10; day++ {
		status := models.AttendanceStatusPresent
		if day == 10 {
			status = models.AttendanceStatusAbsent
		}
		seedRecord(store, "s1", "MA102", time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), status)
	}
	aggregator := NewAttendanceAggregator(store, directory, zap.NewNop())

	overall, err := aggregator.SummarizeAll(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, overall.TotalPresent)
	assert.Equal(t, 12, overall.TotalClasses)
	assert.InDelta(t, 83.33, overall.Percent, 0.001)
}

func TestAggregatorMarkedSessionScenario(t *testing.T) {
	store := newFakeStore()
	directory := newFakeDirectory()
	directory.addSubject("CS101", "Data Structures", "s1", "s2")
	seedRecord(store, "s1", "CS101", "2024-03-01", models.AttendanceStatusPresent)
	seedRecord(store, "s2", "CS101", "2024-03-01", models.AttendanceStatusAbsent)
	aggregator := NewAttendanceAggregator(store, directory, zap.NewNop())

	s1, err := aggregator.SummarizeSubject(context.Background(), "s1", "CS101")
	require.NoError(t, err)
	assert.Equal(t, 1, s1.Present)
	assert.Equal(t, 1, s1.Total)
	assert.Equal(t, 100.0, s1.Percent)

	s2, err := aggregator.SummarizeSubject(context.Background(), "s2", "CS101")
	require.NoError(t, err)
	assert.Equal(t, 0, s2.Present)
	assert.Equal(t, 1, s2.Total)
	assert.Equal(t, 0.0, s2.Percent)
}

func TestAggregatorRoundsHalfUp(t *testing.T) {
	store := newFakeStore()
	directory := newFakeDirectory()
	directory.addSubject("CS101", "Data Structures", "s1")
	// 5/8 = 62.5 exactly; 1/3 checks the repeating case elsewhere.
	for day := 1; day <= 8; day++ {
		status := models.AttendanceStatusPresent
		if day > 5 {
			status = models.AttendanceStatusAbsent
		}
		seedRecord(store, "s1", "CS101", time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), status)
	}
	aggregator := NewAttendanceAggregator(store, directory, zap.NewNop())

	summary, err := aggregator.SummarizeSubject(context.Background(), "s1", "CS101")
	require.NoError(t, err)
	assert.Equal(t, 62.5, summary.Percent)
}

func TestAggregatorSubjectRosterFiltersDate(t *testing.T) {
	store := newFakeStore()
	store.names["s1"] = "Student One"
	store.names["s2"] = "Student Two"
	directory := newFakeDirectory()
	directory.addSubject("CS101", "Data Structures", "s1", "s2")
	seedRecord(store, "s1", "CS101", "2024-03-01", models.AttendanceStatusPresent)
	seedRecord(store, "s2", "CS101", "2024-03-01", models.AttendanceStatusAbsent)
	seedRecord(store, "s1", "CS101", "2024-03-02", models.AttendanceStatusPresent)
	aggregator := NewAttendanceAggregator(store, directory, zap.NewNop())

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	roster, err := aggregator.SubjectRoster(context.Background(), "CS101", &date)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Student One", roster[0].StudentName)
}
