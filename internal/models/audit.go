package models

import "time"

// Audit action vocabulary. The set is closed; new actions belong here, not at
// call sites.
const (
	AuditActionSuperAdminLogin        = "SUPERADMIN_LOGIN"
	AuditActionFailedSuperAdminLogin  = "FAILED_SUPERADMIN_LOGIN"
	AuditActionCreateCentralAdminLink = "CREATE_CENTRAL_ADMIN_LINK"
	AuditActionRegisterCentralAdmin   = "REGISTER_CENTRAL_ADMIN"
	AuditActionCreateCourseAdminLink  = "CREATE_COURSE_ADMIN_LINK"
	AuditActionRegisterCourseAdmin    = "REGISTER_COURSE_ADMIN"
	AuditActionCreateStudent          = "CREATE_STUDENT"
	AuditActionStudentLogin           = "STUDENT_LOGIN"
	AuditActionUserLogin              = "USER_LOGIN"
	AuditActionUserRegister           = "USER_REGISTER"
)

// Actor identifies who performed an audited action. A nil ID marks the fixed
// superadmin identity, which has no users row.
type Actor struct {
	ID   *string
	Role Role
}

// SuperAdminActor returns the actor value for the out-of-band identity.
func SuperAdminActor() Actor {
	return Actor{ID: nil, Role: RoleSuperAdmin}
}

// UserActor returns an actor for a persisted principal.
func UserActor(id string, role Role) Actor {
	return Actor{ID: &id, Role: role}
}

// AuditLog is an append-only audit trail record. Rows are never updated or
// deleted by the application.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Role      Role      `db:"role" json:"role"`
	Action    string    `db:"action" json:"action"`
	Details   []byte    `db:"details" json:"details,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
