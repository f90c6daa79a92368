package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/adeelraza/income-backoffice/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserWithBranch, error)

	// User operations
	GetUsers(ctx context.Context) ([]models.UserWithBranch, error)
	GetUser(ctx context.Context, id string) (*models.UserWithBranch, error)
	GetUsersByBranch(ctx context.Context, branchID string) ([]models.UserWithBranch, error)
	UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error)
	DeactivateUser(ctx context.Context, userID string) (*models.User, error)

	// Branch operations
	GetBranches(ctx context.Context) ([]models.Branch, error)
	GetBranchesWithManagers(ctx context.Context, activeOnly bool) ([]models.BranchWithManager, error)
	GetBranchByUser(ctx context.Context, userID string) (*models.Branch, error)
	GetBranchAndManagerByUser(ctx context.Context, userID string) (*models.BranchManagerDetail, error)
	CreateBranch(ctx context.Context, req models.CreateBranchRequest) (*models.Branch, error)
	UpdateBranch(ctx context.Context, id string, req models.UpdateBranchRequest) (*models.Branch, error)
	DeactivateBranch(ctx context.Context, id string) (*models.Branch, error)

	// Income operations
	AddIncome(ctx context.Context, actor models.Identity, req models.AddIncomeRequest) (*models.Income, error)
	UpdateIncome(ctx context.Context, actor models.Identity, incomeID string, req models.UpdateIncomeRequest) (*models.Income, error)
	DeleteIncome(ctx context.Context, id string) (*models.Income, error)
	GetAllIncome(ctx context.Context, year, month int, branchID string) (*models.IncomeListResponse, error)
	GetBranchIncome(ctx context.Context, branchID string, year, month int) (*models.BranchIncomeResponse, error)
	GetUserIncome(ctx context.Context, userID string, year, month int) (*models.UserIncomeResponse, error)

	// Reporting
	GetDashboard(ctx context.Context, actor models.Identity) (interface{}, error)
	MissingIncomeReport(ctx context.Context, req models.MissingIncomeRequest) (*models.MissingIncomeReport, error)
	CheckIncome(ctx context.Context, userID string) (bool, error)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 20 * time.Minute, // Tokens expire after 20 minutes, no renewal
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Authentication methods
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, notFoundError("User not found")
	}

	if !user.IsActive {
		return nil, forbiddenError("User deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, unauthorizedError("Invalid credentials")
	}

	// Best effort; a failed last-login update must not block the login
	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err == nil {
		user.LastLogin = &now
	}

	populated, err := s.populateBranch(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.LoginResponse{
		Success: true,
		Data:    *populated,
		Token:   token,
		Msg:     "Login successful",
	}, nil
}

func (s *DefaultService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserWithBranch, error) {
	email := normalizeEmail(req.Email)

	if !emailRegex.MatchString(email) {
		return nil, validationError("Invalid email format")
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, validationError("Invalid role")
	}

	if err := validateRoleBranch(role, req.Branch); err != nil {
		return nil, err
	}

	// Optimistic pre-check; the unique index on email is the backstop
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if existing != nil {
		return nil, conflictError("User with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
		BranchID: req.Branch,
		IsActive: isActive,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("User with this email already exists")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.populateBranch(ctx, user)
}

// validateRoleBranch enforces the cross-field invariant: users and
// admins belong to a branch, superadmins must not.
func validateRoleBranch(role models.Role, branchID *string) error {
	hasBranch := branchID != nil && *branchID != ""

	switch role {
	case models.RoleUser, models.RoleAdmin:
		if !hasBranch {
			return validationError("Branch is required for this role")
		}
	case models.RoleSuperadmin:
		if hasBranch {
			return validationError("Superadmin should not be associated with any branch")
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// populateBranch resolves the user's branch reference for responses
func (s *DefaultService) populateBranch(ctx context.Context, user *models.User) (*models.UserWithBranch, error) {
	out := &models.UserWithBranch{User: *user}

	if user.BranchID == nil || *user.BranchID == "" {
		return out, nil
	}

	branch, err := s.repo.GetBranchByID(ctx, *user.BranchID)
	if err != nil {
		return nil, fmt.Errorf("error getting branch: %w", err)
	}
	out.Branch = branch

	return out, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	now := s.now()
	expirationTime := now.Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":   user.ID, // subject
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   expirationTime.Unix(),
		"iat":   now.Unix(), // issued at
	}
	if user.BranchID != nil {
		claims["branch"] = *user.BranchID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
