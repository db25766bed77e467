package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/college-api/internal/dto"
	"github.com/campushub/college-api/internal/models"
	appErrors "github.com/campushub/college-api/pkg/errors"
	"github.com/campushub/college-api/pkg/response"
)

type attendanceService interface {
	MyAttendance(ctx context.Context, claims *models.TokenClaims, studentID string) (*models.OverallAttendanceSummary, error)
	SubjectSummary(ctx context.Context, claims *models.TokenClaims, studentID, subjectCode string) (*models.SubjectAttendanceSummary, error)
	Mark(ctx context.Context, claims *models.TokenClaims, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error)
	SubjectRoster(ctx context.Context, claims *models.TokenClaims, subjectCode string, date *time.Time) ([]models.SessionRecord, error)
	ExportRoster(ctx context.Context, claims *models.TokenClaims, subjectCode string, date *time.Time, format string) ([]byte, string, string, error)
}

// AttendanceHandler exposes the attendance HTTP surface.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// My returns the caller's per-subject summaries. Admins may pass ?studentId=
// to inspect another student's dashboard.
func (h *AttendanceHandler) My(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthentication)
		return
	}

	summary, err := h.service.MyAttendance(c.Request.Context(), claims, c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// clients derive overall totals themselves, the wire payload is the
	// per-subject array
	response.OK(c, summary.Subjects)
}

// Mark writes one session's marking batch.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthentication)
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	result, err := h.service.Mark(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result)
}

// Subject returns the roster-style session records for a subject, optionally
// filtered with ?date=YYYY-MM-DD.
func (h *AttendanceHandler) Subject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthentication)
		return
	}

	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	roster, err := h.service.SubjectRoster(c.Request.Context(), claims, c.Param("subjectCode"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, roster)
}

// SubjectSummary returns one student's summary for a subject. Students get
// their own; faculty and admins may pass ?studentId=.
func (h *AttendanceHandler) SubjectSummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthentication)
		return
	}

	summary, err := h.service.SubjectSummary(c.Request.Context(), claims, c.Query("studentId"), c.Param("subjectCode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// Export streams the subject roster as CSV or PDF (?format=csv|pdf).
func (h *AttendanceHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthentication)
		return
	}

	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, contentType, filename, err := h.service.ExportRoster(c.Request.Context(), claims, c.Param("subjectCode"), date, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Blob(c, contentType, filename, payload)
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidDate, "invalid date format, expected YYYY-MM-DD")
	}
	return &parsed, nil
}
