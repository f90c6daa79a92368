package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/adeelraza/income-backoffice/internal/repository"
)

// Branch operations
func (s *DefaultService) GetBranches(ctx context.Context) ([]models.Branch, error) {
	branches, err := s.repo.ListBranches(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("error listing branches: %w", err)
	}

	return branches, nil
}

// GetBranchesWithManagers pairs each branch with its admin, if any
func (s *DefaultService) GetBranchesWithManagers(ctx context.Context, activeOnly bool) ([]models.BranchWithManager, error) {
	branches, err := s.repo.ListBranches(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing branches: %w", err)
	}

	admins, err := s.repo.ListUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("error listing admins: %w", err)
	}

	managersByBranch := make(map[string]*models.User)
	for i := range admins {
		if id := admins[i].BranchID; id != nil && *id != "" {
			if _, taken := managersByBranch[*id]; !taken {
				managersByBranch[*id] = &admins[i]
			}
		}
	}

	out := make([]models.BranchWithManager, 0, len(branches))
	for _, branch := range branches {
		entry := models.BranchWithManager{
			ID:       branch.ID,
			Name:     branch.Name,
			Code:     branch.Code,
			IsActive: branch.IsActive,
		}
		if manager, ok := managersByBranch[branch.ID]; ok {
			entry.Manager = &models.ManagerSummary{
				ID:        manager.ID,
				Name:      manager.Name,
				Email:     manager.Email,
				LastLogin: manager.LastLogin,
			}
		}
		out = append(out, entry)
	}

	return out, nil
}

func (s *DefaultService) GetBranchByUser(ctx context.Context, userID string) (*models.Branch, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, notFoundError("User not found")
	}

	if user.BranchID == nil || *user.BranchID == "" {
		return nil, notFoundError("Branch not associated with this user")
	}

	branch, err := s.repo.GetBranchByID(ctx, *user.BranchID)
	if err != nil {
		return nil, fmt.Errorf("error getting branch: %w", err)
	}

	if branch == nil {
		return nil, notFoundError("Branch not found")
	}

	return branch, nil
}

func (s *DefaultService) GetBranchAndManagerByUser(ctx context.Context, userID string) (*models.BranchManagerDetail, error) {
	branch, err := s.GetBranchByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	admins, err := s.repo.ListUsersByBranch(ctx, branch.ID, models.RoleAdmin, false)
	if err != nil {
		return nil, fmt.Errorf("error listing branch admins: %w", err)
	}

	if len(admins) == 0 {
		return nil, notFoundError("Branch manager not found")
	}

	manager := admins[0]

	return &models.BranchManagerDetail{
		ID:        branch.ID,
		Name:      branch.Name,
		Code:      branch.Code,
		IsActive:  branch.IsActive,
		CreatedAt: branch.CreatedAt,
		UpdatedAt: branch.UpdatedAt,
		Manager: &models.ManagerSummary{
			ID:    manager.ID,
			Name:  manager.Name,
			Email: manager.Email,
		},
	}, nil
}

func (s *DefaultService) CreateBranch(ctx context.Context, req models.CreateBranchRequest) (*models.Branch, error) {
	code := strings.TrimSpace(req.Code)

	// Explicit duplicate lookup first; the unique index is the backstop
	existing, err := s.repo.GetBranchByCode(ctx, code, "")
	if err != nil {
		return nil, fmt.Errorf("error checking branch code: %w", err)
	}
	if existing != nil {
		return nil, conflictError("Branch code used")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	branch := &models.Branch{
		Name:     strings.TrimSpace(req.Name),
		Code:     code,
		IsActive: isActive,
	}

	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("Branch code used")
		}
		return nil, fmt.Errorf("error creating branch: %w", err)
	}

	return branch, nil
}

func (s *DefaultService) UpdateBranch(ctx context.Context, id string, req models.UpdateBranchRequest) (*models.Branch, error) {
	branch, err := s.repo.GetBranchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting branch: %w", err)
	}

	if branch == nil {
		return nil, notFoundError("Branch not found")
	}

	if req.Code != "" {
		taken, err := s.repo.GetBranchByCode(ctx, req.Code, id)
		if err != nil {
			return nil, fmt.Errorf("error checking branch code: %w", err)
		}
		if taken != nil {
			return nil, conflictError("Branch code used")
		}
		branch.Code = strings.TrimSpace(req.Code)
	}
	if req.Name != "" {
		branch.Name = strings.TrimSpace(req.Name)
	}
	// Absent isActive leaves the current flag untouched
	if req.IsActive != nil {
		branch.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateBranch(ctx, branch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("Branch code used")
		}
		return nil, fmt.Errorf("error updating branch: %w", err)
	}

	return branch, nil
}

// DeactivateBranch soft deletes a branch; users referencing it are kept
func (s *DefaultService) DeactivateBranch(ctx context.Context, id string) (*models.Branch, error) {
	branch, err := s.repo.GetBranchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting branch: %w", err)
	}

	if branch == nil {
		return nil, notFoundError("Branch not found")
	}

	branch.IsActive = false

	if err := s.repo.UpdateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("error updating branch: %w", err)
	}

	return branch, nil
}
