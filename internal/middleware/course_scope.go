package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/response"
)

// CourseScope binds course admin mutations to their own course. The target
// course_name is read from the JSON body; an absent or mismatched value is
// denied. Roles other than course_admin pass through so the same routes can
// be shared across the hierarchy.
func CourseScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.Role != models.RoleCourseAdmin {
			c.Next()
			return
		}

		requested, err := peekCourseName(c)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			c.Abort()
			return
		}

		// Fail closed: no course_name in the request means denial, not a
		// pass-through.
		if requested == "" || requested != claims.CourseName {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden,
				fmt.Sprintf("you can only manage students in your own course (%s)", claims.CourseName)))
			c.Abort()
			return
		}

		c.Next()
	}
}

// peekCourseName reads the course_name field from the body and restores the
// body so handlers can bind it again.
func peekCourseName(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	if len(raw) == 0 {
		return "", nil
	}

	var body struct {
		CourseName string `json:"course_name"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", err
	}
	return body.CourseName, nil
}
