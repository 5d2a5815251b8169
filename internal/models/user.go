package models

import "time"

// Role enumerates the delegation chain of the platform. Each role except
// RoleUser is provisioned by the one above it: superadmin creates central
// admins, central admins create course admins, course admins create students.
type Role string

const (
	RoleSuperAdmin   Role = "superadmin"
	RoleCentralAdmin Role = "central_admin"
	RoleCourseAdmin  Role = "course_admin"
	RoleStudent      Role = "student"
	RoleUser         Role = "user"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleCentralAdmin, RoleCourseAdmin, RoleStudent, RoleUser:
		return true
	}
	return false
}

// SuperAdminActorID is the synthetic principal id carried in session claims
// for the fixed superadmin identity. The superadmin is never a users row;
// audit entries record a NULL user_id for it.
const SuperAdminActorID = "superadmin"

// RegistrationState is the provisioning state of an invited account.
type RegistrationState string

const (
	// RegistrationPending means a registration token is outstanding and no
	// password has been set yet.
	RegistrationPending RegistrationState = "PENDING"
	// RegistrationComplete means the token was consumed and the password set.
	RegistrationComplete RegistrationState = "COMPLETE"
	// RegistrationNotRequired covers students, which never hold a password
	// or a registration token.
	RegistrationNotRequired RegistrationState = "NOT_REQUIRED"
)

// User represents a principal stored in the users table. Several columns are
// nullable because the table holds every role: students have no email or
// password, admins have no student_id, and only course-scoped roles carry a
// course_name.
type User struct {
	ID                string     `db:"id" json:"id"`
	Role              Role       `db:"role" json:"role"`
	Email             *string    `db:"email" json:"email,omitempty"`
	FullName          *string    `db:"full_name" json:"full_name,omitempty"`
	StudentID         *string    `db:"student_id" json:"student_id,omitempty"`
	CourseName        *string    `db:"course_name" json:"course_name,omitempty"`
	CourseAdminID     *string    `db:"course_admin_id" json:"course_admin_id,omitempty"`
	PasswordHash      *string    `db:"password_hash" json:"-"`
	RegistrationToken *string    `db:"registration_token" json:"-"`
	TokenExpiry       *time.Time `db:"token_expiry" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// State derives the registration state from the stored columns. A row is
// either pending (token set, password null) or complete (password set, token
// cleared); the repository's finalize step flips both in one transaction so
// no row is ever observable in a mixed state.
func (u *User) State() RegistrationState {
	if u.Role == RoleStudent {
		return RegistrationNotRequired
	}
	if u.RegistrationToken != nil {
		return RegistrationPending
	}
	return RegistrationComplete
}

// Registered reports whether the account can authenticate with a password.
func (u *User) Registered() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
