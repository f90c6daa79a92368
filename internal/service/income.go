package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/adeelraza/income-backoffice/internal/repository"
)

// validateIncomePeriod bounds the period the same way the report does:
// months are calendar months, years run from 2000 to next year.
func (s *DefaultService) validateIncomePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return validationError("Month must be between 1 and 12")
	}

	maxYear := s.now().Year() + 1
	if year < 2000 || year > maxYear {
		return validationError(fmt.Sprintf("Year must be between 2000 and %d", maxYear))
	}

	return nil
}

// deriveFractions computes the stored fractional amounts (25%, 10%, 5%).
// They are kept for downstream reporting and never read back here.
func deriveFractions(income *models.Income) {
	income.QuarterAmount = income.Amount * 0.25
	income.TenthAmount = income.Amount * 0.1
	income.TwentiethAmount = income.Amount * 0.05
}

func roundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// AddIncome records a user's submission for one month. The period
// pre-check is optimistic; a concurrent duplicate surfaces from the
// unique constraint and is reported as the same conflict.
func (s *DefaultService) AddIncome(ctx context.Context, actor models.Identity, req models.AddIncomeRequest) (*models.Income, error) {
	if req.Year == 0 {
		return nil, validationError("Please provide year.")
	}
	if req.Month == 0 {
		return nil, validationError("Please provide month.")
	}
	if req.Amount == 0 {
		return nil, validationError("Please provide amount.")
	}
	if req.Amount < 0 {
		return nil, validationError("Amount must be greater than 0.")
	}
	if err := s.validateIncomePeriod(req.Year, req.Month); err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("User not found")
	}

	existing, err := s.repo.GetIncomeForPeriod(ctx, userID, req.Year, req.Month)
	if err != nil {
		return nil, fmt.Errorf("error checking existing income: %w", err)
	}
	if existing != nil {
		return nil, conflictError(fmt.Sprintf("Income for %d/%d already exists.", req.Month, req.Year))
	}

	income := &models.Income{
		UserID:   userID,
		Year:     req.Year,
		Month:    req.Month,
		Amount:   roundAmount(req.Amount),
		Comments: req.Comments,
	}
	deriveFractions(income)

	if err := s.repo.CreateIncome(ctx, income); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race after the pre-check passed
			return nil, conflictError("Duplicate income entry for the same month and year.")
		}
		return nil, fmt.Errorf("error adding income: %w", err)
	}

	return income, nil
}

// UpdateIncome replaces the supplied fields, refreshes the submission
// date and records who made the change
func (s *DefaultService) UpdateIncome(ctx context.Context, actor models.Identity, incomeID string, req models.UpdateIncomeRequest) (*models.Income, error) {
	income, err := s.repo.GetIncomeByID(ctx, incomeID)
	if err != nil {
		return nil, fmt.Errorf("error getting income: %w", err)
	}
	if income == nil {
		return nil, notFoundError("Income not found")
	}

	if req.Year != 0 {
		income.Year = req.Year
	}
	if req.Month != 0 {
		income.Month = req.Month
	}
	if req.Amount != 0 {
		if req.Amount < 0 {
			return nil, validationError("Amount must be greater than 0.")
		}
		income.Amount = roundAmount(req.Amount)
	}
	if req.Comments != "" {
		income.Comments = req.Comments
	}

	if err := s.validateIncomePeriod(income.Year, income.Month); err != nil {
		return nil, err
	}

	income.SubmissionDate = s.now()
	income.UpdatedBy = &actor.UserID
	deriveFractions(income)

	if err := s.repo.UpdateIncome(ctx, income); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Moved onto a period that already has a record
			return nil, conflictError("Duplicate income entry for the same month and year.")
		}
		return nil, fmt.Errorf("error updating income: %w", err)
	}

	return income, nil
}

// DeleteIncome is a hard removal; the deleted record is returned
func (s *DefaultService) DeleteIncome(ctx context.Context, id string) (*models.Income, error) {
	income, err := s.repo.GetIncomeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting income: %w", err)
	}
	if income == nil {
		return nil, notFoundError("Income not found")
	}

	if err := s.repo.DeleteIncome(ctx, id); err != nil {
		return nil, fmt.Errorf("error deleting income: %w", err)
	}

	return income, nil
}

func (s *DefaultService) GetAllIncome(ctx context.Context, year, month int, branchID string) (*models.IncomeListResponse, error) {
	records, err := s.repo.ListIncomeWithOwners(ctx, year, month, branchID)
	if err != nil {
		return nil, fmt.Errorf("error listing income records: %w", err)
	}

	var total float64
	for _, record := range records {
		total += record.Amount
	}

	if records == nil {
		records = []models.IncomeWithOwner{}
	}

	return &models.IncomeListResponse{
		Success:     true,
		Count:       len(records),
		TotalAmount: total,
		Data:        records,
	}, nil
}

// GetBranchIncome rolls a branch's records up by period, most recent
// first, with per-group totals and the constituent records
func (s *DefaultService) GetBranchIncome(ctx context.Context, branchID string, year, month int) (*models.BranchIncomeResponse, error) {
	branch, err := s.repo.GetBranchByID(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("error getting branch: %w", err)
	}
	if branch == nil {
		return nil, notFoundError("Branch not found")
	}

	records, err := s.repo.ListIncomeWithOwners(ctx, year, month, branchID)
	if err != nil {
		return nil, fmt.Errorf("error listing branch income: %w", err)
	}

	groups := groupBranchIncome(records)

	var total float64
	for _, group := range groups {
		total += group.TotalAmount
	}

	return &models.BranchIncomeResponse{
		Success:        true,
		BranchName:     branch.Name,
		BranchCode:     branch.Code,
		TotalAmount:    total,
		MonthlyRecords: groups,
	}, nil
}

// GetUserIncome returns one user's records plus summary statistics. With
// a month filter the records come back flat; otherwise they are grouped
// by period, most recent first.
func (s *DefaultService) GetUserIncome(ctx context.Context, userID string, year, month int) (*models.UserIncomeResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("User not found")
	}

	owner := models.UserIncomeOwner{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
	if user.BranchID != nil && *user.BranchID != "" {
		branch, err := s.repo.GetBranchByID(ctx, *user.BranchID)
		if err != nil {
			return nil, fmt.Errorf("error getting branch: %w", err)
		}
		if branch != nil {
			owner.Branch = &models.BranchSummary{ID: branch.ID, Name: branch.Name, Code: branch.Code}
		}
	}

	records, err := s.repo.ListIncomeByUser(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("error listing user income: %w", err)
	}

	// Statistics are always taken over the raw records; grouping only
	// shapes the payload
	stats := computeStats(records)

	var data interface{}
	if month > 0 {
		if records == nil {
			records = []models.Income{}
		}
		data = records
	} else {
		data = groupUserIncome(records)
	}

	return &models.UserIncomeResponse{
		Success: true,
		User:    owner,
		Stats:   stats,
		Data:    data,
	}, nil
}

// computeStats summarizes raw records. An empty set yields zeroes, not
// NaN or a sentinel minimum.
func computeStats(records []models.Income) models.IncomeStats {
	stats := models.IncomeStats{TotalRecords: len(records)}
	if len(records) == 0 {
		return stats
	}

	stats.HighestAmount = records[0].Amount
	stats.LowestAmount = records[0].Amount

	for _, record := range records {
		stats.TotalAmount += record.Amount
		if record.Amount > stats.HighestAmount {
			stats.HighestAmount = record.Amount
		}
		if record.Amount < stats.LowestAmount {
			stats.LowestAmount = record.Amount
		}
	}

	stats.AverageAmount = stats.TotalAmount / float64(stats.TotalRecords)
	return stats
}

// groupBranchIncome folds joined rows into per-period groups. Input
// order (year desc, month desc) is preserved.
func groupBranchIncome(records []models.IncomeWithOwner) []models.IncomeGroup {
	groups := []models.IncomeGroup{}
	index := make(map[models.Period]int)

	for _, record := range records {
		period := models.Period{Year: record.Year, Month: record.Month}
		i, ok := index[period]
		if !ok {
			i = len(groups)
			index[period] = i
			groups = append(groups, models.IncomeGroup{Period: period, Records: []models.GroupRecord{}})
		}

		groups[i].TotalAmount += record.Amount
		groups[i].RecordCount++
		groups[i].Records = append(groups[i].Records, models.GroupRecord{
			Amount:         record.Amount,
			UserName:       record.UserName,
			SubmissionDate: record.SubmissionDate,
			Comments:       record.Comments,
		})
	}

	return groups
}

// groupUserIncome folds one user's records into per-period groups
func groupUserIncome(records []models.Income) []models.IncomeGroup {
	groups := []models.IncomeGroup{}
	index := make(map[models.Period]int)

	for _, record := range records {
		period := models.Period{Year: record.Year, Month: record.Month}
		i, ok := index[period]
		if !ok {
			i = len(groups)
			index[period] = i
			groups = append(groups, models.IncomeGroup{Period: period, Records: []models.GroupRecord{}})
		}

		createdAt := record.CreatedAt
		updatedAt := record.UpdatedAt
		groups[i].TotalAmount += record.Amount
		groups[i].Records = append(groups[i].Records, models.GroupRecord{
			ID:             record.ID,
			Amount:         record.Amount,
			SubmissionDate: record.SubmissionDate,
			Comments:       record.Comments,
			CreatedAt:      &createdAt,
			UpdatedAt:      &updatedAt,
		})
	}

	return groups
}
