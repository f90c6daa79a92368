package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/adeelraza/income-backoffice/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// User operations
func (s *DefaultService) GetUsers(ctx context.Context) ([]models.UserWithBranch, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	return s.populateBranches(ctx, users)
}

func (s *DefaultService) GetUser(ctx context.Context, id string) (*models.UserWithBranch, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, notFoundError("User not found")
	}

	return s.populateBranch(ctx, user)
}

func (s *DefaultService) GetUsersByBranch(ctx context.Context, branchID string) ([]models.UserWithBranch, error) {
	users, err := s.repo.ListUsersByBranch(ctx, branchID, "", false)
	if err != nil {
		return nil, fmt.Errorf("error listing branch users: %w", err)
	}

	return s.populateBranches(ctx, users)
}

// UpdateUser applies the non-empty fields of the request. A supplied
// password is re-hashed; role and branch changes are validated together
// against the final state.
func (s *DefaultService) UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, notFoundError("User not found")
	}

	if req.Name != "" {
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		email := normalizeEmail(req.Email)
		if !emailRegex.MatchString(email) {
			return nil, validationError("Invalid email format")
		}
		user.Email = email
	}
	if req.Role != "" {
		role := models.Role(req.Role)
		if !role.Valid() {
			return nil, validationError("Invalid role")
		}
		user.Role = role
	}
	if req.Branch != nil && *req.Branch != "" {
		user.BranchID = req.Branch
	}

	if err := validateRoleBranch(user.Role, user.BranchID); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.Password = string(hashedPassword)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("User with this email already exists")
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	return user, nil
}

// DeactivateUser is the soft delete: the account is flagged inactive,
// nothing else changes and no referencing records are touched.
func (s *DefaultService) DeactivateUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, notFoundError("User not found")
	}

	user.IsActive = false

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	return user, nil
}

// populateBranches resolves branch references for a batch of users with
// one lookup per distinct branch
func (s *DefaultService) populateBranches(ctx context.Context, users []models.User) ([]models.UserWithBranch, error) {
	branches := make(map[string]*models.Branch)
	out := make([]models.UserWithBranch, 0, len(users))

	for i := range users {
		entry := models.UserWithBranch{User: users[i]}

		if id := users[i].BranchID; id != nil && *id != "" {
			branch, ok := branches[*id]
			if !ok {
				var err error
				branch, err = s.repo.GetBranchByID(ctx, *id)
				if err != nil {
					return nil, fmt.Errorf("error getting branch: %w", err)
				}
				branches[*id] = branch
			}
			entry.Branch = branch
		}

		out = append(out, entry)
	}

	return out, nil
}
