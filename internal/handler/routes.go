package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/zyntra-exam-api/internal/middleware"
	"github.com/noah-isme/zyntra-exam-api/internal/models"
)

// RegisterRoutes declares every protected operation by its allowed-role set
// and, where applicable, the course-scope binding. The engine pieces
// (Authenticate, RequireRoles, CourseScope) never change per route.
func RegisterRoutes(r *gin.Engine, prefix string, auth *AuthHandler, admin *AdminHandler, metrics *MetricsHandler, verifier middleware.TokenVerifier, loginLimiter gin.HandlerFunc) {
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Health)
	r.GET("/metrics", metrics.Prometheus)

	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/superadmin-login", loginLimiter, auth.SuperAdminLogin)
		authGroup.POST("/login", loginLimiter, auth.Login)
		authGroup.POST("/student-login", auth.StudentLogin)
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/register-central/:token", auth.RegisterCentralAdmin)
		authGroup.POST("/register-course/:token", auth.RegisterCourseAdmin)
		authGroup.GET("/me", middleware.Authenticate(verifier), auth.Me)
	}

	adminGroup := api.Group("/admin", middleware.Authenticate(verifier))
	{
		adminGroup.POST("/create-central-link",
			middleware.RequireRoles(models.RoleSuperAdmin),
			admin.CreateCentralAdminLink)
		adminGroup.POST("/create-course-link",
			middleware.RequireRoles(models.RoleCentralAdmin),
			admin.CreateCourseAdminLink)
		adminGroup.POST("/create-student",
			middleware.RequireRoles(models.RoleCourseAdmin),
			middleware.CourseScope(),
			admin.CreateStudent)
		adminGroup.GET("/logs",
			middleware.RequireRoles(models.RoleSuperAdmin),
			admin.Logs)
		adminGroup.GET("/logs/export",
			middleware.RequireRoles(models.RoleSuperAdmin),
			admin.ExportLogs)
	}
}
