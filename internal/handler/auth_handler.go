package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	"github.com/noah-isme/zyntra-exam-api/internal/service"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/response"
)

// AuthHandler wires the login and registration endpoints to their services.
type AuthHandler struct {
	auth         *service.AuthService
	registration *service.RegistrationService
	metrics      *service.MetricsService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, registration *service.RegistrationService, metrics *service.MetricsService) *AuthHandler {
	return &AuthHandler{auth: auth, registration: registration, metrics: metrics}
}

// SuperAdminLogin godoc
// @Summary Superadmin login
// @Description Authenticate the fixed superadmin identity
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SuperAdminLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/superadmin-login [post]
func (h *AuthHandler) SuperAdminLogin(c *gin.Context) {
	var req models.SuperAdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.auth.SuperAdminLogin(c.Request.Context(), req)
	h.metrics.RecordLogin("superadmin", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Login godoc
// @Summary Authenticate by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.auth.Login(c.Request.Context(), req)
	h.metrics.RecordLogin("standard", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// StudentLogin godoc
// @Summary Student login by student_id
// @Description Students authenticate by identifier alone; no password exists for them
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.StudentLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/student-login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req models.StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.auth.StudentLogin(c.Request.Context(), req)
	h.metrics.RecordLogin("student", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Register godoc
// @Summary Generic self-registration
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterUserRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	user, err := h.registration.RegisterUser(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user.Info())
}

// RegisterCentralAdmin godoc
// @Summary Complete central admin registration
// @Tags Registration
// @Accept json
// @Produce json
// @Param token path string true "Registration token"
// @Param payload body models.CompleteCentralAdminRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/register-central/{token} [post]
func (h *AuthHandler) RegisterCentralAdmin(c *gin.Context) {
	var req models.CompleteCentralAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	req.Token = c.Param("token")

	user, err := h.registration.RegisterCentralAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.Info())
}

// RegisterCourseAdmin godoc
// @Summary Complete course admin registration
// @Tags Registration
// @Accept json
// @Produce json
// @Param token path string true "Registration token"
// @Param payload body models.CompleteCourseAdminRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register-course/{token} [post]
func (h *AuthHandler) RegisterCourseAdmin(c *gin.Context) {
	var req models.CompleteCourseAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	req.Token = c.Param("token")

	user, err := h.registration.RegisterCourseAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.Info())
}

// Me godoc
// @Summary Get current principal
// @Description Fresh storage read of the authenticated principal
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info, err := h.auth.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"user": info, "token": claims})
}
