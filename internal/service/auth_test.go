package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adeelraza/income-backoffice/internal/mocks"
	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mocks.Repository) *DefaultService {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte("test-secret-key"),
		tokenDuration: 20 * time.Minute,
		now:           func() time.Time { return testNow },
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func strPtr(s string) *string { return &s }

func TestLoginUnknownEmailIsNotFound(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	svc := newTestService(repo)
	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "Ghost@Example.com", // normalized before lookup
		Password: "whatever",
	})

	assert.True(t, errors.Is(err, ErrNotFound))
	repo.AssertExpectations(t)
}

func TestLoginInactiveUserIsForbidden(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByEmail", mock.Anything, "gone@example.com").Return(&models.User{
		ID:       "u1",
		Email:    "gone@example.com",
		Password: hashPassword(t, "correct-password"),
		Role:     models.RoleUser,
		IsActive: false,
	}, nil)

	svc := newTestService(repo)
	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "gone@example.com",
		Password: "correct-password",
	})

	// Deactivation wins even with the right password
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByEmail", mock.Anything, "a@example.com").Return(&models.User{
		ID:       "u1",
		Email:    "a@example.com",
		Password: hashPassword(t, "right"),
		Role:     models.RoleUser,
		IsActive: true,
	}, nil)

	svc := newTestService(repo)
	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "a@example.com",
		Password: "wrong",
	})

	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestLoginSuccessIssuesTokenAndUpdatesLastLogin(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByEmail", mock.Anything, "a@example.com").Return(&models.User{
		ID:       "u1",
		Name:     "Alice",
		Email:    "a@example.com",
		Password: hashPassword(t, "right"),
		Role:     models.RoleUser,
		BranchID: strPtr("b1"),
		IsActive: true,
	}, nil)
	repo.On("UpdateLastLogin", mock.Anything, "u1", testNow).Return(nil)
	repo.On("GetBranchByID", mock.Anything, "b1").Return(&models.Branch{
		ID:   "b1",
		Name: "Central",
		Code: "CTR",
	}, nil)

	svc := newTestService(repo)
	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "a@example.com",
		Password: "right",
	})

	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Central", resp.Data.Branch.Name)
	assert.NotNil(t, resp.Data.LastLogin)
	assert.Empty(t, resp.Data.Password, "password hash must never leave the service")
	repo.AssertExpectations(t)
}

func TestRegisterAcceptsTaggedEmail(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByEmail", mock.Anything, "bob+tag@example.com").Return(nil, nil)
	repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("GetBranchByID", mock.Anything, "b1").Return(&models.Branch{ID: "b1"}, nil)

	svc := newTestService(repo)
	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Bob",
		Email:    "Bob+Tag@Example.com",
		Password: "secret123",
		Branch:   strPtr("b1"),
	})

	assert.NoError(t, err)
	assert.Equal(t, "bob+tag@example.com", user.Email)
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	svc := newTestService(new(mocks.Repository))

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Bob",
		Email:    "not-an-email",
		Password: "secret123",
		Branch:   strPtr("b1"),
	})

	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestService(new(mocks.Repository))

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "secret123",
		Role:     "owner",
		Branch:   strPtr("b1"),
	})

	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRegisterBranchInvariant(t *testing.T) {
	svc := newTestService(new(mocks.Repository))

	// user without a branch
	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "secret123",
		Role:     "user",
	})
	assert.True(t, errors.Is(err, ErrValidation))

	// superadmin with a branch
	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Root",
		Email:    "root@example.com",
		Password: "secret123",
		Role:     "superadmin",
		Branch:   strPtr("b1"),
	})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByEmail", mock.Anything, "bob@example.com").Return(&models.User{ID: "existing"}, nil)

	svc := newTestService(repo)
	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Bob",
		Email:    "Bob@Example.com",
		Password: "secret123",
		Branch:   strPtr("b1"),
	})

	assert.True(t, errors.Is(err, ErrConflict))
}

func TestRegisterHashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByEmail", mock.Anything, "bob@example.com").Return(nil, nil)
	repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("GetBranchByID", mock.Anything, "b1").Return(&models.Branch{ID: "b1"}, nil)

	svc := newTestService(repo)
	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Bob",
		Email:    " Bob@Example.com ",
		Password: "secret123",
		Branch:   strPtr("b1"),
	})

	assert.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role, "role defaults to user")
	assert.True(t, user.IsActive)

	created := repo.Calls[1].Arguments.Get(1).(*models.User)
	assert.NotEqual(t, "secret123", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("secret123")))
}

func TestValidateRoleBranch(t *testing.T) {
	assert.NoError(t, validateRoleBranch(models.RoleUser, strPtr("b1")))
	assert.NoError(t, validateRoleBranch(models.RoleAdmin, strPtr("b1")))
	assert.NoError(t, validateRoleBranch(models.RoleSuperadmin, nil))

	assert.Error(t, validateRoleBranch(models.RoleUser, nil))
	assert.Error(t, validateRoleBranch(models.RoleAdmin, strPtr("")))
	assert.Error(t, validateRoleBranch(models.RoleSuperadmin, strPtr("b1")))
}
