package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	"github.com/noah-isme/zyntra-exam-api/internal/service"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/export"
	"github.com/noah-isme/zyntra-exam-api/pkg/response"
)

// AdminHandler exposes the provisioning and audit-trail endpoints.
type AdminHandler struct {
	registration *service.RegistrationService
	audit        *service.AuditService
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(registration *service.RegistrationService, audit *service.AuditService) *AdminHandler {
	return &AdminHandler{
		registration: registration,
		audit:        audit,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
	}
}

// CreateCentralAdminLink godoc
// @Summary Create a central admin registration link
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param payload body models.CreateCentralAdminLinkRequest true "Invite payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/create-central-link [post]
func (h *AdminHandler) CreateCentralAdminLink(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCentralAdminLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invite payload"))
		return
	}

	link, err := h.registration.CreateCentralAdminLink(c.Request.Context(), actorFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, link)
}

// CreateCourseAdminLink godoc
// @Summary Create a course admin registration link
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param payload body models.CreateCourseAdminLinkRequest true "Invite payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/create-course-link [post]
func (h *AdminHandler) CreateCourseAdminLink(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCourseAdminLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invite payload"))
		return
	}

	link, err := h.registration.CreateCourseAdminLink(c.Request.Context(), actorFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, link)
}

// CreateStudent godoc
// @Summary Create a student in the course admin's own course
// @Tags Provisioning
// @Accept json
// @Produce json
// @Param payload body models.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/create-student [post]
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	student, err := h.registration.CreateStudent(c.Request.Context(), actorFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, student.Info())
}

// Logs godoc
// @Summary List recent audit entries
// @Tags Audit
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/logs [get]
func (h *AdminHandler) Logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.audit.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"logs": entries})
}

// ExportLogs godoc
// @Summary Download the audit trail as CSV or PDF
// @Tags Audit
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param limit query int false "Maximum entries"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /admin/logs/export [get]
func (h *AdminHandler) ExportLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.audit.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := auditDataset(entries)
	filename := fmt.Sprintf("audit-logs-%s", time.Now().UTC().Format("20060102-150405"))

	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		out, err := h.pdf.Render(data, "audit trail")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", out)
	case "csv":
		out, err := h.csv.Render(data)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", out)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func auditDataset(entries []models.AuditLog) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		userID := ""
		if entry.UserID != nil {
			userID = *entry.UserID
		}
		rows = append(rows, map[string]string{
			"time":    entry.CreatedAt.UTC().Format(time.RFC3339),
			"user_id": userID,
			"role":    string(entry.Role),
			"action":  entry.Action,
			"details": string(entry.Details),
		})
	}
	return export.Dataset{
		Headers: []string{"time", "user_id", "role", "action", "details"},
		Rows:    rows,
	}
}
