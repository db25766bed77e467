package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/college-api/internal/dto"
	"github.com/campushub/college-api/internal/middleware"
	"github.com/campushub/college-api/internal/models"
	appErrors "github.com/campushub/college-api/pkg/errors"
)

type fakeAttendanceSrv struct {
	overall    *models.OverallAttendanceSummary
	overallErr error
	markResp   *dto.MarkAttendanceResponse
	markErr    error
	lastMark   dto.MarkAttendanceRequest
	roster     []models.SessionRecord
	rosterErr  error
	lastDate   *time.Time
}

func (f *fakeAttendanceSrv) MyAttendance(context.Context, *models.TokenClaims, string) (*models.OverallAttendanceSummary, error) {
	return f.overall, f.overallErr
}

func (f *fakeAttendanceSrv) SubjectSummary(context.Context, *models.TokenClaims, string, string) (*models.SubjectAttendanceSummary, error) {
	return nil, f.overallErr
}

func (f *fakeAttendanceSrv) Mark(_ context.Context, _ *models.TokenClaims, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error) {
	f.lastMark = req
	return f.markResp, f.markErr
}

func (f *fakeAttendanceSrv) SubjectRoster(_ context.Context, _ *models.TokenClaims, _ string, date *time.Time) ([]models.SessionRecord, error) {
	f.lastDate = date
	return f.roster, f.rosterErr
}

func (f *fakeAttendanceSrv) ExportRoster(context.Context, *models.TokenClaims, string, *time.Time, string) ([]byte, string, string, error) {
	return []byte("Student ID,Status\n"), "text/csv", "CS101-attendance.csv", nil
}

func testContext(t *testing.T, method, target string, body string, claims *models.TokenClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestAttendanceHandlerMyRequiresClaims(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	c, rec := testContext(t, http.MethodGet, "/attendance/my", "", nil)
	handler.My(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceHandlerMyReturnsSubjectArray(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{
		overall: &models.OverallAttendanceSummary{
			Subjects: []models.SubjectAttendanceSummary{
				{SubjectCode: "CS101", SubjectName: "Data Structures", Present: 3, Total: 4, Percent: 75},
				{SubjectCode: "MA201", SubjectName: "Linear Algebra", Present: 0, Total: 0, Percent: 0},
			},
			TotalPresent: 3,
			TotalClasses: 4,
			Percent:      75,
		},
	})

	claims := &models.TokenClaims{IdentityID: "s1", Role: models.RoleStudent}
	c, rec := testContext(t, http.MethodGet, "/attendance/my", "", claims)
	handler.My(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	// data is the bare per-subject array, not the internal overall struct
	var envelope struct {
		Success bool                              `json:"success"`
		Data    []models.SubjectAttendanceSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "CS101", envelope.Data[0].SubjectCode)
	assert.Equal(t, 3, envelope.Data[0].Present)
	assert.Equal(t, 4, envelope.Data[0].Total)

	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.True(t, len(raw.Data) > 0 && raw.Data[0] == '[')
}

func TestAttendanceHandlerMyForbidden(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{overallErr: appErrors.ErrAuthorization})

	claims := &models.TokenClaims{IdentityID: "s1", Role: models.RoleStudent}
	c, rec := testContext(t, http.MethodGet, "/attendance/my?studentId=s2", "", claims)
	handler.My(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Message)
}

func TestAttendanceHandlerMarkSuccess(t *testing.T) {
	srv := &fakeAttendanceSrv{markResp: &dto.MarkAttendanceResponse{SubjectCode: "CS101", Date: "2024-03-01", Marked: 2}}
	handler := NewAttendanceHandler(srv)

	body := `{"subjectCode":"CS101","date":"2024-03-01","marks":[{"studentId":"s1","status":"present"},{"studentId":"s2","status":"absent"}]}`
	claims := &models.TokenClaims{IdentityID: "f1", Role: models.RoleFaculty}
	c, rec := testContext(t, http.MethodPost, "/attendance/mark", body, claims)
	handler.Mark(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "CS101", srv.lastMark.SubjectCode)
	assert.Len(t, srv.lastMark.Marks, 2)
}

func TestAttendanceHandlerMarkRejectsMalformedBody(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	claims := &models.TokenClaims{IdentityID: "f1", Role: models.RoleFaculty}
	c, rec := testContext(t, http.MethodPost, "/attendance/mark", "{not json", claims)
	handler.Mark(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerMarkSurfacesUnenrolled(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{
		markErr: appErrors.Clone(appErrors.ErrUnenrolled, "students not enrolled in CS101: intruder"),
	})

	body := `{"subjectCode":"CS101","date":"2024-03-01","marks":[{"studentId":"intruder","status":"present"}]}`
	claims := &models.TokenClaims{IdentityID: "f1", Role: models.RoleFaculty}
	c, rec := testContext(t, http.MethodPost, "/attendance/mark", body, claims)
	handler.Mark(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "UNENROLLED_STUDENT", envelope.Code)
	assert.Contains(t, envelope.Message, "intruder")
}

func TestAttendanceHandlerSubjectParsesDate(t *testing.T) {
	srv := &fakeAttendanceSrv{roster: []models.SessionRecord{}}
	handler := NewAttendanceHandler(srv)

	claims := &models.TokenClaims{IdentityID: "f1", Role: models.RoleFaculty}
	c, rec := testContext(t, http.MethodGet, "/attendance/subject/CS101?date=2024-03-01", "", claims)
	c.Params = gin.Params{{Key: "subjectCode", Value: "CS101"}}
	handler.Subject(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.lastDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *srv.lastDate)
}

func TestAttendanceHandlerSubjectRejectsBadDate(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	claims := &models.TokenClaims{IdentityID: "f1", Role: models.RoleFaculty}
	c, rec := testContext(t, http.MethodGet, "/attendance/subject/CS101?date=03-01-2024", "", claims)
	c.Params = gin.Params{{Key: "subjectCode", Value: "CS101"}}
	handler.Subject(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerExport(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	claims := &models.TokenClaims{IdentityID: "f1", Role: models.RoleFaculty}
	c, rec := testContext(t, http.MethodGet, "/attendance/subject/CS101/export", "", claims)
	c.Params = gin.Params{{Key: "subjectCode", Value: "CS101"}}
	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "CS101-attendance.csv")
}
