package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/password"
)

// SessionTTL is the fixed lifetime of a session credential. Sessions are
// stateless and cannot be revoked, so the lifetime stays short by design.
const SessionTTL = time.Hour

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditRecorder interface {
	Record(actor models.Actor, action string, details interface{})
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience []string
	// The fixed out-of-band superadmin identity, injected at startup.
	SuperAdminEmail        string
	SuperAdminPasswordHash string
}

// AuthService provides the login flows and session credential handling.
type AuthService struct {
	repo      authUserRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AuthService{repo: repo, audit: audit, validator: validate, logger: logger, config: config}
}

// Login authenticates central admins, course admins and generic users by
// email and password. Unknown email, pending registration and wrong password
// are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.Role == models.RoleStudent || !user.Registered() {
		return nil, appErrors.ErrInvalidCredentials
	}

	if !password.Verify(req.Password, *user.PasswordHash) {
		return nil, appErrors.ErrInvalidCredentials
	}

	res, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(models.UserActor(user.ID, user.Role), models.AuditActionUserLogin, map[string]interface{}{
		"email": req.Email,
		"role":  user.Role,
		"ip":    req.IP,
	})

	return res, nil
}

// SuperAdminLogin authenticates the fixed identity by exact email match and
// password verification against the configured hash. Both failure modes are
// audited with distinguishable detail but return the same generic error.
func (s *AuthService) SuperAdminLogin(ctx context.Context, req models.SuperAdminLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.config.SuperAdminEmail)) != 1 {
		s.audit.Record(models.SuperAdminActor(), models.AuditActionFailedSuperAdminLogin, map[string]interface{}{
			"attempted_email": req.Email,
			"ip":              req.IP,
		})
		return nil, appErrors.ErrInvalidCredentials
	}

	if !password.Verify(req.Password, s.config.SuperAdminPasswordHash) {
		s.audit.Record(models.SuperAdminActor(), models.AuditActionFailedSuperAdminLogin, map[string]interface{}{
			"email":  req.Email,
			"reason": "wrong_password",
			"ip":     req.IP,
		})
		return nil, appErrors.ErrInvalidCredentials
	}

	token, issuedAt, err := s.issueToken(models.SuperAdminActorID, models.RoleSuperAdmin, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	s.audit.Record(models.SuperAdminActor(), models.AuditActionSuperAdminLogin, map[string]interface{}{
		"email": req.Email,
		"ip":    req.IP,
	})

	email := s.config.SuperAdminEmail
	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(SessionTTL.Seconds()),
		IssuedAt:  issuedAt,
		User: models.UserInfo{
			ID:    models.SuperAdminActorID,
			Role:  models.RoleSuperAdmin,
			Email: &email,
		},
	}, nil
}

// StudentLogin authenticates a student by identifier alone. No password is
// checked: possession of the student_id is the credential for this identity
// class.
func (s *AuthService) StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.repo.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	res, err := s.issueSession(student)
	if err != nil {
		return nil, err
	}

	s.audit.Record(models.UserActor(student.ID, models.RoleStudent), models.AuditActionStudentLogin, map[string]interface{}{
		"student_id": req.StudentID,
		"full_name":  student.FullName,
		"ip":         req.IP,
	})

	return res, nil
}

// CurrentUser resolves the principal behind a session credential with a fresh
// storage read. The superadmin has no row and is answered from configuration.
func (s *AuthService) CurrentUser(ctx context.Context, claims *models.SessionClaims) (*models.UserInfo, error) {
	if claims.UserID == models.SuperAdminActorID {
		email := s.config.SuperAdminEmail
		return &models.UserInfo{ID: models.SuperAdminActorID, Role: models.RoleSuperAdmin, Email: &email}, nil
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	info := user.Info()
	return &info, nil
}

// VerifyToken parses and validates a session credential. Verification fails
// closed: signature mismatch, malformed structure and expiry all yield the
// same unauthorized result.
func (s *AuthService) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) issueSession(user *models.User) (*models.LoginResponse, error) {
	courseName := ""
	if user.CourseName != nil {
		courseName = *user.CourseName
	}

	token, issuedAt, err := s.issueToken(user.ID, user.Role, courseName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(SessionTTL.Seconds()),
		IssuedAt:  issuedAt,
		User:      user.Info(),
	}, nil
}

func (s *AuthService) issueToken(userID string, role models.Role, courseName string) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	claims := &models.SessionClaims{
		UserID:     userID,
		Role:       role,
		CourseName: courseName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
