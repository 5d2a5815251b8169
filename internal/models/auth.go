package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the JWT payload for access tokens. The role and the bound
// course are trusted for the token lifetime; everything else is re-read from
// storage when current state matters.
type SessionClaims struct {
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	CourseName string `json:"course_name,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest holds credentials for the standard email+password login.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SuperAdminLoginRequest authenticates the fixed out-of-band identity.
type SuperAdminLoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// StudentLoginRequest authenticates a student by identifier alone. Possession
// of the student_id is the credential; this is a deliberate weak-auth policy
// for a low-stakes identity class, not an oversight.
type StudentLoginRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RegisterUserRequest is the generic self-registration payload. The role is
// always fixed to RoleUser server-side; it is never an escalation path.
type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,regpassword"`
}

// CreateCentralAdminLinkRequest is issued by the superadmin.
type CreateCentralAdminLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateCourseAdminLinkRequest is issued by a central admin and binds the
// invitee to exactly one course.
type CreateCourseAdminLinkRequest struct {
	Email      string `json:"email" validate:"required,email"`
	CourseName string `json:"course_name" validate:"required"`
}

// CompleteCentralAdminRequest consumes a central admin registration token.
type CompleteCentralAdminRequest struct {
	Token    string `json:"-" validate:"required"`
	Password string `json:"password" validate:"required,regpassword"`
}

// CompleteCourseAdminRequest consumes a course admin registration token and
// finalizes the unique course_admin_id.
type CompleteCourseAdminRequest struct {
	Token         string `json:"-" validate:"required"`
	Password      string `json:"password" validate:"required,regpassword"`
	CourseAdminID string `json:"course_admin_id" validate:"required"`
}

// CreateStudentRequest provisions a student inside the issuing course
// admin's own course.
type CreateStudentRequest struct {
	StudentID  string  `json:"student_id" validate:"required"`
	FullName   string  `json:"full_name" validate:"required"`
	CourseName string  `json:"course_name" validate:"required"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
}

// RegistrationLink is returned to the issuing role. The link is handed back
// in the response body; delivery to the invitee is out of scope.
type RegistrationLink struct {
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	ID         string  `json:"id"`
	Role       Role    `json:"role"`
	Email      *string `json:"email,omitempty"`
	FullName   *string `json:"full_name,omitempty"`
	StudentID  *string `json:"student_id,omitempty"`
	CourseName *string `json:"course_name,omitempty"`
}

// LoginResponse returns the issued session credential and user info.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
	User      UserInfo  `json:"user"`
}

// Info converts a stored user into its response form.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:         u.ID,
		Role:       u.Role,
		Email:      u.Email,
		FullName:   u.FullName,
		StudentID:  u.StudentID,
		CourseName: u.CourseName,
	}
}
