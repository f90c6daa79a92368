package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/google/uuid"
)

// MissingIncomeReport finds the active users who have not submitted for
// the target period and splits them into "never submitted" and
// "submitted before, missing this month".
func (s *DefaultService) MissingIncomeReport(ctx context.Context, req models.MissingIncomeRequest) (*models.MissingIncomeReport, error) {
	now := s.now()

	year := req.Year
	if year == 0 {
		year = now.Year()
	}
	month := req.Month
	if month == 0 {
		month = int(now.Month())
	}

	if month < 1 || month > 12 {
		return nil, validationError("Month must be between 1 and 12")
	}
	if year < 2000 || year > now.Year()+1 {
		return nil, validationError(fmt.Sprintf("Year must be between 2000 and %d", now.Year()+1))
	}

	var branchFilter *models.BranchSummary
	if req.BranchID != "" {
		if _, err := uuid.Parse(req.BranchID); err != nil {
			return nil, validationError("Please provide a valid branch ID")
		}
		branch, err := s.repo.GetBranchByID(ctx, req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("error getting branch: %w", err)
		}
		if branch == nil {
			return nil, validationError("Please provide a valid branch ID")
		}
		branchFilter = &models.BranchSummary{ID: branch.ID, Name: branch.Name, Code: branch.Code}
	}

	candidates, err := s.repo.MissingIncomeCandidates(ctx, year, month, req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("error querying missing income candidates: %w", err)
	}

	// Second pass: resolve each distinct branch reference once
	branchByID := make(map[string]*models.BranchSummary)
	for _, candidate := range candidates {
		if id := candidate.BranchID; id != nil && *id != "" {
			if _, ok := branchByID[*id]; ok {
				continue
			}
			branch, err := s.repo.GetBranchByID(ctx, *id)
			if err != nil {
				return nil, fmt.Errorf("error getting branch: %w", err)
			}
			if branch != nil {
				branchByID[*id] = &models.BranchSummary{ID: branch.ID, Name: branch.Name, Code: branch.Code}
			}
		}
	}

	report := buildMissingIncomeReport(year, month, branchFilter, candidates, branchByID)
	report.Timestamp = now
	return report, nil
}

// buildMissingIncomeReport partitions the candidates. Candidates arrive
// sorted by name and already exclude anyone with a record for the
// target period.
func buildMissingIncomeReport(
	year, month int,
	branchFilter *models.BranchSummary,
	candidates []models.MissingIncomeCandidate,
	branchByID map[string]*models.BranchSummary,
) *models.MissingIncomeReport {
	neverSubmitted := []models.MissingIncomeUser{}
	missingSelectedMonth := []models.MissingIncomeUser{}

	for _, candidate := range candidates {
		entry := models.MissingIncomeUser{
			ID:        candidate.ID,
			Name:      candidate.Name,
			Email:     candidate.Email,
			LastLogin: candidate.LastLogin,
		}
		if id := candidate.BranchID; id != nil {
			entry.Branch = branchByID[*id]
		}

		if candidate.HasSubmittedBefore {
			missingSelectedMonth = append(missingSelectedMonth, entry)
		} else {
			neverSubmitted = append(neverSubmitted, entry)
		}
	}

	return &models.MissingIncomeReport{
		Filter: models.MissingIncomeFilter{
			Year:   year,
			Month:  month,
			Branch: branchFilter,
		},
		Summary: models.MissingIncomeSummary{
			TotalUsers:                len(candidates),
			NeverSubmittedCount:       len(neverSubmitted),
			MissingSelectedMonthCount: len(missingSelectedMonth),
		},
		NeverSubmitted: models.MissingIncomeGroup{
			Count: len(neverSubmitted),
			Users: neverSubmitted,
		},
		MissingSelectedMonth: models.MissingIncomeGroup{
			Count: len(missingSelectedMonth),
			Users: missingSelectedMonth,
		},
	}
}

// GetDashboard builds the role-scoped summary. The role comes from the
// session token, so a role change only takes effect once the holder
// logs in again.
func (s *DefaultService) GetDashboard(ctx context.Context, actor models.Identity) (interface{}, error) {
	switch actor.Role {
	case models.RoleUser:
		return s.userDashboard(ctx, actor)
	case models.RoleAdmin:
		return s.adminDashboard(ctx, actor)
	case models.RoleSuperadmin:
		return s.superadminDashboard(ctx, actor)
	default:
		return nil, forbiddenError("Unknown role")
	}
}

func (s *DefaultService) userDashboard(ctx context.Context, actor models.Identity) (*models.UserDashboard, error) {
	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("User not found")
	}

	records, err := s.repo.ListIncomeByUser(ctx, actor.UserID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing income: %w", err)
	}
	if records == nil {
		records = []models.Income{}
	}

	return &models.UserDashboard{
		UserInfo: models.DashboardUserInfo{
			Name:      user.Name,
			Email:     user.Email,
			Role:      actor.Role,
			Branch:    user.BranchID,
			LastLogin: user.LastLogin,
			IsActive:  user.IsActive,
		},
		IncomeSummary: records,
	}, nil
}

// adminDashboard covers the admin's own branch only. The per-user
// income reads fan out concurrently; results are assembled after all
// complete.
func (s *DefaultService) adminDashboard(ctx context.Context, actor models.Identity) (*models.AdminDashboard, error) {
	if actor.BranchID == nil || *actor.BranchID == "" {
		return nil, forbiddenError("Admin is not associated with a branch")
	}
	branchID := *actor.BranchID

	// Deactivated accounts are excluded from the branch view
	totalUsers, err := s.repo.CountUsersInBranch(ctx, branchID, models.RoleUser, true)
	if err != nil {
		return nil, fmt.Errorf("error counting branch users: %w", err)
	}

	users, err := s.repo.ListUsersByBranch(ctx, branchID, models.RoleUser, true)
	if err != nil {
		return nil, fmt.Errorf("error listing branch users: %w", err)
	}

	incomeByUser := make([][]models.Income, len(users))
	errs := make([]error, len(users))

	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			incomeByUser[i], errs[i] = s.repo.ListIncomeByUser(ctx, users[i].ID, 0, 0)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("error listing income: %w", err)
		}
	}

	// Null when nobody in the branch has submitted anything, so callers
	// can tell that apart from a mix of empty and non-empty histories
	allEmpty := true
	for i := range incomeByUser {
		if len(incomeByUser[i]) > 0 {
			allEmpty = false
		} else {
			incomeByUser[i] = []models.Income{}
		}
	}

	var incomeSummary [][]models.Income
	if !allEmpty {
		incomeSummary = incomeByUser
	}

	branch, err := s.repo.GetBranchByID(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("error getting branch: %w", err)
	}

	if users == nil {
		users = []models.User{}
	}

	return &models.AdminDashboard{
		IncomeSummary: incomeSummary,
		Users:         users,
		TotalUsers:    totalUsers,
		BranchInfo:    branch,
	}, nil
}

func (s *DefaultService) superadminDashboard(ctx context.Context, actor models.Identity) (*models.SuperadminDashboard, error) {
	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("User not found")
	}

	totalUsers, err := s.repo.CountUsersByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	totalAdmins, err := s.repo.CountUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("error counting admins: %w", err)
	}
	totalSuperadmins, err := s.repo.CountUsersByRole(ctx, models.RoleSuperadmin)
	if err != nil {
		return nil, fmt.Errorf("error counting superadmins: %w", err)
	}
	totalBranches, err := s.repo.CountBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting branches: %w", err)
	}

	return &models.SuperadminDashboard{
		UserInfo: models.DashboardUserInfo{
			Name:      user.Name,
			Email:     user.Email,
			Role:      actor.Role,
			LastLogin: user.LastLogin,
			IsActive:  user.IsActive,
		},
		TotalUsers:       totalUsers,
		TotalSuperadmins: totalSuperadmins,
		TotalAdmins:      totalAdmins,
		TotalBranches:    totalBranches,
	}, nil
}

// CheckIncome reports whether the user already has a record for the
// current calendar month
func (s *DefaultService) CheckIncome(ctx context.Context, userID string) (bool, error) {
	now := s.now()

	exists, err := s.repo.HasIncomeForPeriod(ctx, userID, now.Year(), int(now.Month()))
	if err != nil {
		return false, fmt.Errorf("error checking income: %w", err)
	}

	return exists, nil
}
