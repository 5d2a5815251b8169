package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	"github.com/noah-isme/zyntra-exam-api/internal/repository"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/password"
)

// memoryUserRepo mirrors the storage contract closely enough to exercise the
// single-use token semantics, including the single-winner guarantee under
// concurrent consumption.
type memoryUserRepo struct {
	mu    sync.Mutex
	users []*models.User
	seq   int
}

func (m *memoryUserRepo) nextID() string {
	m.seq++
	return fmt.Sprintf("u-%d", m.seq)
}

func (m *memoryUserRepo) InsertPendingUser(ctx context.Context, pending repository.PendingUser) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email != nil && *u.Email == pending.Email {
			return nil, appErrors.Clone(appErrors.ErrDuplicateIdentity, "email already registered")
		}
	}

	email := pending.Email
	token := pending.Token
	expiry := pending.TokenExpiry
	user := &models.User{
		ID:                m.nextID(),
		Role:              pending.Role,
		Email:             &email,
		CourseName:        pending.CourseName,
		RegistrationToken: &token,
		TokenExpiry:       &expiry,
	}
	m.users = append(m.users, user)
	return user, nil
}

func (m *memoryUserRepo) ConsumeTokenAndFinalize(ctx context.Context, token, passwordHash string, fields repository.FinalizeFields) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var match *models.User
	for _, u := range m.users {
		if u.RegistrationToken != nil && *u.RegistrationToken == token &&
			u.TokenExpiry != nil && u.TokenExpiry.After(time.Now()) {
			match = u
			break
		}
	}
	if match == nil {
		return nil, appErrors.ErrInvalidOrExpiredToken
	}

	if fields.CourseAdminID != nil {
		for _, u := range m.users {
			if u != match && u.CourseAdminID != nil && *u.CourseAdminID == *fields.CourseAdminID {
				// Uniqueness failure rolls back: the token stays usable.
				return nil, appErrors.Clone(appErrors.ErrDuplicateIdentity, "course admin id already exists")
			}
		}
		match.CourseAdminID = fields.CourseAdminID
	}

	hash := passwordHash
	match.PasswordHash = &hash
	match.RegistrationToken = nil
	match.TokenExpiry = nil
	copied := *match
	return &copied, nil
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if user.StudentID != nil && u.StudentID != nil && *u.StudentID == *user.StudentID {
			return appErrors.Clone(appErrors.ErrDuplicateIdentity, "duplicate")
		}
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return appErrors.Clone(appErrors.ErrDuplicateIdentity, "duplicate")
		}
	}

	user.ID = m.nextID()
	copied := *user
	m.users = append(m.users, &copied)
	return nil
}

func (m *memoryUserRepo) findByEmail(email string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			return u
		}
	}
	return nil
}

func newRegistrationService(repo *memoryUserRepo, audit *mockAudit) *RegistrationService {
	return NewRegistrationService(repo, audit, NewValidator(), nil, "/api/v1")
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parts := strings.Split(link, "/")
	require.NotEmpty(t, parts)
	return parts[len(parts)-1]
}

func TestCreateCentralAdminLink(t *testing.T) {
	repo := &memoryUserRepo{}
	audit := &mockAudit{}
	svc := newRegistrationService(repo, audit)

	link, err := svc.CreateCentralAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCentralAdminLinkRequest{
		Email: "centraladmin@test.com",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link.Link, "/api/v1/auth/register-central/"))
	assert.Len(t, tokenFromLink(t, link.Link), 64)
	assert.WithinDuration(t, time.Now().Add(RegistrationTokenTTL), link.ExpiresAt, 5*time.Second)

	pending := repo.findByEmail("centraladmin@test.com")
	require.NotNil(t, pending)
	assert.Equal(t, models.RegistrationPending, pending.State())
	assert.Equal(t, []string{models.AuditActionCreateCentralAdminLink}, audit.actions())
}

func TestCreateCentralAdminLinkForbiddenForLowerRoles(t *testing.T) {
	svc := newRegistrationService(&memoryUserRepo{}, &mockAudit{})

	for _, role := range []models.Role{models.RoleCentralAdmin, models.RoleCourseAdmin, models.RoleStudent, models.RoleUser} {
		_, err := svc.CreateCentralAdminLink(context.Background(), models.UserActor("u-1", role), models.CreateCentralAdminLinkRequest{
			Email: "x@test.com",
		})
		require.Error(t, err, "role %s", role)
		assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	}
}

func TestCreateCourseAdminLinkRequiresCentralAdmin(t *testing.T) {
	svc := newRegistrationService(&memoryUserRepo{}, &mockAudit{})

	_, err := svc.CreateCourseAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCourseAdminLinkRequest{
		Email:      "courseadmin@test.com",
		CourseName: "Math101",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestDuplicatePendingEmailRejected(t *testing.T) {
	svc := newRegistrationService(&memoryUserRepo{}, &mockAudit{})

	_, err := svc.CreateCentralAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCentralAdminLinkRequest{
		Email: "centraladmin@test.com",
	})
	require.NoError(t, err)

	_, err = svc.CreateCentralAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCentralAdminLinkRequest{
		Email: "centraladmin@test.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateIdentity))
}

func TestRegisterCentralAdminConsumesTokenOnce(t *testing.T) {
	repo := &memoryUserRepo{}
	audit := &mockAudit{}
	svc := newRegistrationService(repo, audit)

	link, err := svc.CreateCentralAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCentralAdminLinkRequest{
		Email: "centraladmin@test.com",
	})
	require.NoError(t, err)
	token := tokenFromLink(t, link.Link)

	user, err := svc.RegisterCentralAdmin(context.Background(), models.CompleteCentralAdminRequest{
		Token:    token,
		Password: "Password@123a",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationComplete, user.State())
	assert.True(t, password.Verify("Password@123a", *user.PasswordHash))

	_, err = svc.RegisterCentralAdmin(context.Background(), models.CompleteCentralAdminRequest{
		Token:    token,
		Password: "Password@123a",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidOrExpiredToken))
}

func TestRegisterCentralAdminExpiredToken(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newRegistrationService(repo, &mockAudit{})

	link, err := svc.CreateCentralAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCentralAdminLinkRequest{
		Email: "centraladmin@test.com",
	})
	require.NoError(t, err)

	pending := repo.findByEmail("centraladmin@test.com")
	expired := time.Now().Add(-time.Minute)
	pending.TokenExpiry = &expired

	_, err = svc.RegisterCentralAdmin(context.Background(), models.CompleteCentralAdminRequest{
		Token:    tokenFromLink(t, link.Link),
		Password: "Password@123a",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidOrExpiredToken))
}

func TestRegisterCentralAdminWeakPassword(t *testing.T) {
	svc := newRegistrationService(&memoryUserRepo{}, &mockAudit{})

	for _, weak := range []string{"short1!", "alllowercase1!", "ALLUPPERCASE1!", "NoDigits!!", "NoSpecial123"} {
		_, err := svc.RegisterCentralAdmin(context.Background(), models.CompleteCentralAdminRequest{
			Token:    "whatever",
			Password: weak,
		})
		require.Error(t, err, "password %q", weak)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	}
}

func TestRegisterCourseAdminDuplicateIDLeavesTokenUsable(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newRegistrationService(repo, &mockAudit{})

	central := models.UserActor("u-central", models.RoleCentralAdmin)

	first, err := svc.CreateCourseAdminLink(context.Background(), central, models.CreateCourseAdminLinkRequest{
		Email:      "math@test.com",
		CourseName: "Math101",
	})
	require.NoError(t, err)
	_, err = svc.RegisterCourseAdmin(context.Background(), models.CompleteCourseAdminRequest{
		Token:         tokenFromLink(t, first.Link),
		Password:      "Password@123a",
		CourseAdminID: "CA-1",
	})
	require.NoError(t, err)

	second, err := svc.CreateCourseAdminLink(context.Background(), central, models.CreateCourseAdminLinkRequest{
		Email:      "physics@test.com",
		CourseName: "Physics201",
	})
	require.NoError(t, err)
	token := tokenFromLink(t, second.Link)

	_, err = svc.RegisterCourseAdmin(context.Background(), models.CompleteCourseAdminRequest{
		Token:         token,
		Password:      "Password@123a",
		CourseAdminID: "CA-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateIdentity))

	// The failed attempt must not burn the token.
	user, err := svc.RegisterCourseAdmin(context.Background(), models.CompleteCourseAdminRequest{
		Token:         token,
		Password:      "Password@123a",
		CourseAdminID: "CA-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "CA-2", *user.CourseAdminID)
}

func TestConcurrentTokenConsumptionSingleWinner(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newRegistrationService(repo, &mockAudit{})

	link, err := svc.CreateCentralAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCentralAdminLinkRequest{
		Email: "centraladmin@test.com",
	})
	require.NoError(t, err)
	token := tokenFromLink(t, link.Link)

	const racers = 8
	results := make(chan error, racers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		go func() {
			start.Wait()
			_, err := svc.RegisterCentralAdmin(context.Background(), models.CompleteCentralAdminRequest{
				Token:    token,
				Password: "Password@123a",
			})
			results <- err
		}()
	}
	start.Done()

	var wins, losses int
	for i := 0; i < racers; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			assert.True(t, errors.Is(err, appErrors.ErrInvalidOrExpiredToken))
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, losses)
}

func TestCreateStudent(t *testing.T) {
	repo := &memoryUserRepo{}
	audit := &mockAudit{}
	svc := newRegistrationService(repo, audit)

	actor := models.UserActor("u-course", models.RoleCourseAdmin)
	student, err := svc.CreateStudent(context.Background(), actor, models.CreateStudentRequest{
		StudentID:  "S-100",
		FullName:   "Test Student",
		CourseName: "Math101",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, student.Role)
	assert.Equal(t, models.RegistrationNotRequired, student.State())
	assert.Nil(t, student.PasswordHash)
	assert.Equal(t, []string{models.AuditActionCreateStudent}, audit.actions())

	_, err = svc.CreateStudent(context.Background(), actor, models.CreateStudentRequest{
		StudentID:  "S-100",
		FullName:   "Other Student",
		CourseName: "Math101",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateIdentity))
	assert.Contains(t, err.Error(), "student id already exists")
}

func TestCreateStudentRequiresCourseAdmin(t *testing.T) {
	svc := newRegistrationService(&memoryUserRepo{}, &mockAudit{})

	_, err := svc.CreateStudent(context.Background(), models.SuperAdminActor(), models.CreateStudentRequest{
		StudentID:  "S-1",
		FullName:   "Test",
		CourseName: "Math101",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestRegisterUserAlwaysPlainRole(t *testing.T) {
	repo := &memoryUserRepo{}
	svc := newRegistrationService(repo, &mockAudit{})

	user, err := svc.RegisterUser(context.Background(), models.RegisterUserRequest{
		Email:    "someone@test.com",
		Password: "Password@123a",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	_, err = svc.RegisterUser(context.Background(), models.RegisterUserRequest{
		Email:    "someone@test.com",
		Password: "Password@123a",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateIdentity))
	assert.Contains(t, err.Error(), "email already registered")
}

// TestDelegationChain walks the whole provisioning chain end to end:
// superadmin invites a central admin, who invites a course admin, who creates
// a student able to log in by student id.
func TestDelegationChain(t *testing.T) {
	repo := &memoryUserRepo{}
	audit := &mockAudit{}
	regSvc := newRegistrationService(repo, audit)
	authSvc := NewAuthService(&chainAuthRepo{repo: repo}, audit, NewValidator(), nil, AuthConfig{
		Secret: "test-secret",
		Issuer: "zyntra-exam-api",
	})

	centralLink, err := regSvc.CreateCentralAdminLink(context.Background(), models.SuperAdminActor(), models.CreateCentralAdminLinkRequest{
		Email: "centraladmin@test.com",
	})
	require.NoError(t, err)

	central, err := regSvc.RegisterCentralAdmin(context.Background(), models.CompleteCentralAdminRequest{
		Token:    tokenFromLink(t, centralLink.Link),
		Password: "Password@123a",
	})
	require.NoError(t, err)

	courseLink, err := regSvc.CreateCourseAdminLink(context.Background(), models.UserActor(central.ID, central.Role), models.CreateCourseAdminLinkRequest{
		Email:      "courseadmin@test.com",
		CourseName: "Math101",
	})
	require.NoError(t, err)

	course, err := regSvc.RegisterCourseAdmin(context.Background(), models.CompleteCourseAdminRequest{
		Token:         tokenFromLink(t, courseLink.Link),
		Password:      "Password@123a",
		CourseAdminID: "CA-MATH-1",
	})
	require.NoError(t, err)
	require.NotNil(t, course.CourseName)
	assert.Equal(t, "Math101", *course.CourseName)

	_, err = regSvc.CreateStudent(context.Background(), models.UserActor(course.ID, course.Role), models.CreateStudentRequest{
		StudentID:  "S-100",
		FullName:   "Test Student",
		CourseName: "Math101",
	})
	require.NoError(t, err)

	// The freshly created student can log in with the id alone.
	res, err := authSvc.StudentLogin(context.Background(), models.StudentLoginRequest{StudentID: "S-100"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)

	// The registered central admin can log in with email and password.
	loginRes, err := authSvc.Login(context.Background(), models.LoginRequest{
		Email:    "centraladmin@test.com",
		Password: "Password@123a",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCentralAdmin, loginRes.User.Role)

	assert.Equal(t, []string{
		models.AuditActionCreateCentralAdminLink,
		models.AuditActionRegisterCentralAdmin,
		models.AuditActionCreateCourseAdminLink,
		models.AuditActionRegisterCourseAdmin,
		models.AuditActionCreateStudent,
		models.AuditActionStudentLogin,
		models.AuditActionUserLogin,
	}, audit.actions())
}

// chainAuthRepo adapts memoryUserRepo to the auth lookups.
type chainAuthRepo struct {
	repo *memoryUserRepo
}

func (c *chainAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u := c.repo.findByEmail(email); u != nil {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (c *chainAuthRepo) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	for _, u := range c.repo.users {
		if u.Role == models.RoleStudent && u.StudentID != nil && *u.StudentID == studentID {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c *chainAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	for _, u := range c.repo.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}
