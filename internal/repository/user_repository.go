package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
)

const userColumns = `id, role, email, full_name, student_id, course_name, course_admin_id, password_hash, registration_token, token_expiry, created_at, updated_at`

// UserRepository provides database access for principals across all roles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByStudentID returns a student by student identifier. The role filter is
// part of the query so a student_id can never resolve to a non-student row.
func (r *UserRepository) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE student_id = $1 AND role = $2 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, studentID, models.RoleStudent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by student id: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// PendingUser describes an invited account before registration completes.
type PendingUser struct {
	Role        models.Role
	Email       string
	CourseName  *string
	Token       string
	TokenExpiry time.Time
}

// InsertPendingUser creates a PENDING row holding the registration token.
// A unique-key violation on the email surfaces as ErrDuplicateIdentity.
func (r *UserRepository) InsertPendingUser(ctx context.Context, pending PendingUser) (*models.User, error) {
	query := fmt.Sprintf(`INSERT INTO users (id, role, email, course_name, registration_token, token_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING %s`, userColumns)

	now := time.Now().UTC()
	var user models.User
	err := r.db.GetContext(ctx, &user, query,
		uuid.NewString(), pending.Role, pending.Email, pending.CourseName, pending.Token, pending.TokenExpiry, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateIdentity, "email already registered")
		}
		return nil, fmt.Errorf("insert pending user: %w", err)
	}
	return &user, nil
}

// FinalizeFields carries role-specific identity fields set when a
// registration token is consumed.
type FinalizeFields struct {
	CourseAdminID *string
}

// ConsumeTokenAndFinalize atomically consumes a registration token: the row
// is located and locked only if the token matches and has not expired, then
// the password hash is written and the token cleared in the same transaction.
// Two racing holders of the same token get at most one winner; the loser
// observes no matching row. A uniqueness failure on the finalize fields rolls
// the whole transaction back, leaving the token unconsumed.
func (r *UserRepository) ConsumeTokenAndFinalize(ctx context.Context, token, passwordHash string, fields FinalizeFields) (*models.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin finalize tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	selectQuery := fmt.Sprintf(`SELECT %s FROM users WHERE registration_token = $1 AND token_expiry > now() FOR UPDATE`, userColumns)
	var pending models.User
	if err := tx.GetContext(ctx, &pending, selectQuery, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("lookup registration token: %w", err)
	}

	updateQuery := fmt.Sprintf(`UPDATE users
		SET password_hash = $1,
		    course_admin_id = COALESCE($2, course_admin_id),
		    registration_token = NULL,
		    token_expiry = NULL,
		    updated_at = $3
		WHERE id = $4
		RETURNING %s`, userColumns)

	var user models.User
	err = tx.GetContext(ctx, &user, updateQuery, passwordHash, fields.CourseAdminID, time.Now().UTC(), pending.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateIdentity, "course admin id already exists")
		}
		return nil, fmt.Errorf("finalize registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit finalize tx: %w", err)
	}
	return &user, nil
}

// Create inserts a fully formed user row (students and generic users, which
// never go through the token flow). Unique-key violations on email,
// student_id or course_admin_id surface as ErrDuplicateIdentity.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, role, email, full_name, student_id, course_name, course_admin_id, password_hash, registration_token, token_expiry, created_at, updated_at)
		VALUES (:id, :role, :email, :full_name, :student_id, :course_name, :course_admin_id, :password_hash, :registration_token, :token_expiry, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return appErrors.ErrDuplicateIdentity
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
