package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/password"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByStudentID  *models.User
	userByID         *models.User
	findByEmailErr   error
	findByStudentErr error
	findByIDErr      error
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	if m.findByStudentErr != nil {
		return nil, m.findByStudentErr
	}
	if m.userByStudentID == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByStudentID, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByID, nil
}

type recordedAudit struct {
	actor   models.Actor
	action  string
	details interface{}
}

type mockAudit struct {
	mu      sync.Mutex
	records []recordedAudit
}

func (m *mockAudit) Record(actor models.Actor, action string, details interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recordedAudit{actor: actor, action: action, details: details})
}

func (m *mockAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.action)
	}
	return out
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := password.Hash(plain)
	require.NoError(t, err)
	return hash
}

func strPtr(s string) *string { return &s }

func newAuthService(repo *mockAuthRepo, audit *mockAudit, superEmail, superHash string) *AuthService {
	return NewAuthService(repo, audit, NewValidator(), nil, AuthConfig{
		Secret:                 "test-secret",
		Issuer:                 "zyntra-exam-api",
		SuperAdminEmail:        superEmail,
		SuperAdminPasswordHash: superHash,
	})
}

func TestLoginSuccess(t *testing.T) {
	hash := mustHash(t, "Password@123a")
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID:           "u-1",
		Role:         models.RoleCentralAdmin,
		Email:        strPtr("admin@test.com"),
		PasswordHash: &hash,
	}}
	audit := &mockAudit{}
	svc := newAuthService(repo, audit, "root@test.com", hash)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@test.com", Password: "Password@123a"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleCentralAdmin, res.User.Role)
	assert.Equal(t, []string{models.AuditActionUserLogin}, audit.actions())

	claims, err := svc.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleCentralAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	hash := mustHash(t, "Password@123a")
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID:           "u-1",
		Role:         models.RoleCentralAdmin,
		Email:        strPtr("admin@test.com"),
		PasswordHash: &hash,
	}}
	audit := &mockAudit{}
	svc := newAuthService(repo, audit, "root@test.com", hash)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@test.com", Password: "Wrong@123a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
	assert.Empty(t, audit.actions())
}

func TestLoginUnknownEmailAndPendingLookAlike(t *testing.T) {
	// Unknown account, pending registration and a student row must all fail
	// with the same generic error.
	cases := map[string]*mockAuthRepo{
		"unknown email": {},
		"pending registration": {userByEmail: &models.User{
			ID:                "u-2",
			Role:              models.RoleCentralAdmin,
			Email:             strPtr("pending@test.com"),
			RegistrationToken: strPtr("tok"),
		}},
		"student row": {userByEmail: &models.User{
			ID:        "u-3",
			Role:      models.RoleStudent,
			StudentID: strPtr("S-1"),
		}},
	}

	for name, repo := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newAuthService(repo, &mockAudit{}, "root@test.com", "x")
			_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@test.com", Password: "whatever"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
		})
	}
}

func TestSuperAdminLoginSuccess(t *testing.T) {
	hash := mustHash(t, "Root@12345")
	audit := &mockAudit{}
	svc := newAuthService(&mockAuthRepo{}, audit, "superadmin@zyntra.com", hash)

	res, err := svc.SuperAdminLogin(context.Background(), models.SuperAdminLoginRequest{
		Email:    "superadmin@zyntra.com",
		Password: "Root@12345",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SuperAdminActorID, res.User.ID)
	assert.Equal(t, models.RoleSuperAdmin, res.User.Role)
	assert.Equal(t, []string{models.AuditActionSuperAdminLogin}, audit.actions())

	claims, err := svc.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.SuperAdminActorID, claims.UserID)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
}

func TestSuperAdminLoginWrongEmail(t *testing.T) {
	hash := mustHash(t, "Root@12345")
	audit := &mockAudit{}
	svc := newAuthService(&mockAuthRepo{}, audit, "superadmin@zyntra.com", hash)

	_, err := svc.SuperAdminLogin(context.Background(), models.SuperAdminLoginRequest{
		Email:    "intruder@test.com",
		Password: "Root@12345",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	require.Len(t, audit.records, 1)
	assert.Equal(t, models.AuditActionFailedSuperAdminLogin, audit.records[0].action)
	assert.Nil(t, audit.records[0].actor.ID)
	details := audit.records[0].details.(map[string]interface{})
	assert.Equal(t, "intruder@test.com", details["attempted_email"])
}

func TestSuperAdminLoginWrongPassword(t *testing.T) {
	hash := mustHash(t, "Root@12345")
	audit := &mockAudit{}
	svc := newAuthService(&mockAuthRepo{}, audit, "superadmin@zyntra.com", hash)

	_, err := svc.SuperAdminLogin(context.Background(), models.SuperAdminLoginRequest{
		Email:    "superadmin@zyntra.com",
		Password: "Wrong@12345",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	require.Len(t, audit.records, 1)
	assert.Equal(t, models.AuditActionFailedSuperAdminLogin, audit.records[0].action)
	details := audit.records[0].details.(map[string]interface{})
	assert.Equal(t, "wrong_password", details["reason"])
}

func TestStudentLogin(t *testing.T) {
	repo := &mockAuthRepo{userByStudentID: &models.User{
		ID:         "u-9",
		Role:       models.RoleStudent,
		StudentID:  strPtr("S-100"),
		FullName:   strPtr("Test Student"),
		CourseName: strPtr("Math101"),
	}}
	audit := &mockAudit{}
	svc := newAuthService(repo, audit, "root@test.com", "x")

	res, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{StudentID: "S-100"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.Equal(t, []string{models.AuditActionStudentLogin}, audit.actions())

	claims, err := svc.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "Math101", claims.CourseName)
}

func TestStudentLoginUnknownID(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, &mockAudit{}, "root@test.com", "x")

	_, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{StudentID: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestVerifyTokenExpired(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, &mockAudit{}, "root@test.com", "x")

	issuedAt := time.Now().UTC().Add(-2 * time.Hour)
	claims := &models.SessionClaims{
		UserID: "u-1",
		Role:   models.RoleCentralAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(signed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, &mockAudit{}, "root@test.com", "x")

	claims := &models.SessionClaims{
		UserID: "u-1",
		Role:   models.RoleCentralAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(signed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestVerifyTokenRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, &mockAudit{}, "root@test.com", "x")

	claims := &models.SessionClaims{
		UserID: "u-1",
		Role:   models.Role("emperor"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(signed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestCurrentUserSuperAdminFromConfig(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, &mockAudit{}, "superadmin@zyntra.com", "x")

	info, err := svc.CurrentUser(context.Background(), &models.SessionClaims{
		UserID: models.SuperAdminActorID,
		Role:   models.RoleSuperAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SuperAdminActorID, info.ID)
	require.NotNil(t, info.Email)
	assert.Equal(t, "superadmin@zyntra.com", *info.Email)
}

func TestCurrentUserFreshRead(t *testing.T) {
	repo := &mockAuthRepo{userByID: &models.User{
		ID:    "u-1",
		Role:  models.RoleCourseAdmin,
		Email: strPtr("course@test.com"),
	}}
	svc := newAuthService(repo, &mockAudit{}, "root@test.com", "x")

	info, err := svc.CurrentUser(context.Background(), &models.SessionClaims{UserID: "u-1", Role: models.RoleCourseAdmin})
	require.NoError(t, err)
	assert.Equal(t, "u-1", info.ID)

	repo.userByID = nil
	_, err = svc.CurrentUser(context.Background(), &models.SessionClaims{UserID: "u-1", Role: models.RoleCourseAdmin})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
