package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	"github.com/noah-isme/zyntra-exam-api/internal/repository"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/password"
)

// RegistrationTokenTTL is the fixed validity window of a registration link.
const RegistrationTokenTTL = 30 * time.Minute

// registrationTokenBytes gives 256 bits of entropy, hex encoded on the wire.
const registrationTokenBytes = 32

type registrationUserRepository interface {
	InsertPendingUser(ctx context.Context, pending repository.PendingUser) (*models.User, error)
	ConsumeTokenAndFinalize(ctx context.Context, token, passwordHash string, fields repository.FinalizeFields) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// RegistrationService implements the token-mediated delegated registration
// chain: each issuing role provisions the next via a single-use, time-limited
// token.
type RegistrationService struct {
	repo      registrationUserRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	apiPrefix string
}

// NewRegistrationService constructs a RegistrationService instance. The api
// prefix is only used to render registration links in responses.
func NewRegistrationService(repo registrationUserRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, apiPrefix string) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &RegistrationService{repo: repo, audit: audit, validator: validate, logger: logger, apiPrefix: apiPrefix}
}

// CreateCentralAdminLink lets the superadmin invite a central admin. The
// issuer→invitee pairing is fixed; any other actor is refused regardless of
// what the route layer allowed.
func (s *RegistrationService) CreateCentralAdminLink(ctx context.Context, actor models.Actor, req models.CreateCentralAdminLinkRequest) (*models.RegistrationLink, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the superadmin can invite central admins")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invite payload")
	}

	token, err := generateRegistrationToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token")
	}
	expiry := time.Now().UTC().Add(RegistrationTokenTTL)

	pending, err := s.repo.InsertPendingUser(ctx, repository.PendingUser{
		Role:        models.RoleCentralAdmin,
		Email:       req.Email,
		Token:       token,
		TokenExpiry: expiry,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(actor, models.AuditActionCreateCentralAdminLink, map[string]interface{}{
		"central_admin_email": req.Email,
		"central_admin_id":    pending.ID,
	})

	return &models.RegistrationLink{
		Link:      fmt.Sprintf("%s/auth/register-central/%s", s.apiPrefix, token),
		ExpiresAt: expiry,
	}, nil
}

// CreateCourseAdminLink lets a central admin invite a course admin bound to
// exactly one course.
func (s *RegistrationService) CreateCourseAdminLink(ctx context.Context, actor models.Actor, req models.CreateCourseAdminLinkRequest) (*models.RegistrationLink, error) {
	if actor.Role != models.RoleCentralAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only a central admin can invite course admins")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invite payload")
	}

	token, err := generateRegistrationToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token")
	}
	expiry := time.Now().UTC().Add(RegistrationTokenTTL)

	pending, err := s.repo.InsertPendingUser(ctx, repository.PendingUser{
		Role:        models.RoleCourseAdmin,
		Email:       req.Email,
		CourseName:  &req.CourseName,
		Token:       token,
		TokenExpiry: expiry,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(actor, models.AuditActionCreateCourseAdminLink, map[string]interface{}{
		"course_admin_email": req.Email,
		"course_name":        req.CourseName,
		"generated_id":       pending.ID,
	})

	return &models.RegistrationLink{
		Link:      fmt.Sprintf("%s/auth/register-course/%s", s.apiPrefix, token),
		ExpiresAt: expiry,
	}, nil
}

// RegisterCentralAdmin consumes a central admin registration token and sets
// the password. The token is single-use: a second attempt fails the same way
// an expired or unknown token does.
func (s *RegistrationService) RegisterCentralAdmin(ctx context.Context, req models.CompleteCentralAdminRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user, err := s.repo.ConsumeTokenAndFinalize(ctx, req.Token, hash, repository.FinalizeFields{})
	if err != nil {
		return nil, err
	}

	s.audit.Record(models.UserActor(user.ID, models.RoleCentralAdmin), models.AuditActionRegisterCentralAdmin, map[string]interface{}{
		"email": user.Email,
	})

	return user, nil
}

// RegisterCourseAdmin consumes a course admin registration token, sets the
// password and finalizes the unique course_admin_id. Consumption and the
// uniqueness check are one transaction: a duplicate id leaves the token
// usable.
func (s *RegistrationService) RegisterCourseAdmin(ctx context.Context, req models.CompleteCourseAdminRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user, err := s.repo.ConsumeTokenAndFinalize(ctx, req.Token, hash, repository.FinalizeFields{CourseAdminID: &req.CourseAdminID})
	if err != nil {
		return nil, err
	}

	s.audit.Record(models.UserActor(user.ID, models.RoleCourseAdmin), models.AuditActionRegisterCourseAdmin, map[string]interface{}{
		"email":           user.Email,
		"course_name":     user.CourseName,
		"course_admin_id": req.CourseAdminID,
	})

	return user, nil
}

// CreateStudent provisions a student. Students carry no password; their
// student_id is both identity and credential. The course-scope binding of a
// course admin actor is enforced before this is reached.
func (s *RegistrationService) CreateStudent(ctx context.Context, actor models.Actor, req models.CreateStudentRequest) (*models.User, error) {
	if actor.Role != models.RoleCourseAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only a course admin can create students")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.User{
		Role:       models.RoleStudent,
		StudentID:  &req.StudentID,
		FullName:   &req.FullName,
		CourseName: &req.CourseName,
		Email:      req.Email,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrDuplicateIdentity.Code {
			return nil, appErrors.Clone(appErrors.ErrDuplicateIdentity, "student id already exists")
		}
		return nil, err
	}

	s.audit.Record(actor, models.AuditActionCreateStudent, map[string]interface{}{
		"created_student_id": req.StudentID,
		"full_name":          req.FullName,
		"course_name":        req.CourseName,
		"generated_id":       student.ID,
	})

	return student, nil
}

// RegisterUser handles the generic self-registration fallback. The role is
// always RoleUser; this path can never mint an administrative account.
func (s *RegistrationService) RegisterUser(ctx context.Context, req models.RegisterUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Role:         models.RoleUser,
		Email:        &req.Email,
		PasswordHash: &hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrDuplicateIdentity.Code {
			return nil, appErrors.Clone(appErrors.ErrDuplicateIdentity, "email already registered")
		}
		return nil, err
	}

	s.audit.Record(models.UserActor(user.ID, models.RoleUser), models.AuditActionUserRegister, map[string]interface{}{
		"email": req.Email,
	})

	return user, nil
}

func generateRegistrationToken() (string, error) {
	buf := make([]byte, registrationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
