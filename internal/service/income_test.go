package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adeelraza/income-backoffice/internal/mocks"
	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/adeelraza/income-backoffice/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var actor = models.Identity{UserID: "u1", Email: "a@example.com", Role: models.RoleUser, BranchID: strPtr("b1")}

func TestAddIncomeFieldValidation(t *testing.T) {
	svc := newTestService(new(mocks.Repository))
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.AddIncomeRequest
	}{
		{"missing year", models.AddIncomeRequest{Month: 6, Amount: 100}},
		{"missing month", models.AddIncomeRequest{Year: 2025, Amount: 100}},
		{"missing amount", models.AddIncomeRequest{Year: 2025, Month: 6}},
		{"negative amount", models.AddIncomeRequest{Year: 2025, Month: 6, Amount: -5}},
		{"month too large", models.AddIncomeRequest{Year: 2025, Month: 13, Amount: 100}},
		{"year too small", models.AddIncomeRequest{Year: 1999, Month: 6, Amount: 100}},
		{"year too large", models.AddIncomeRequest{Year: 2027, Month: 6, Amount: 100}}, // now is 2025
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddIncome(ctx, actor, tc.req)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestAddIncomeDefaultsToActorAndDerivesFractions(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByID", mock.Anything, "u1").Return(&models.User{ID: "u1", IsActive: true}, nil)
	repo.On("GetIncomeForPeriod", mock.Anything, "u1", 2025, 6).Return(nil, nil)
	repo.On("CreateIncome", mock.Anything, mock.AnythingOfType("*models.Income")).Return(nil)

	svc := newTestService(repo)
	income, err := svc.AddIncome(context.Background(), actor, models.AddIncomeRequest{
		Year:   2025,
		Month:  6,
		Amount: 1000.006,
	})

	assert.NoError(t, err)
	assert.Equal(t, "u1", income.UserID)
	assert.Equal(t, 1000.01, income.Amount, "amount is rounded to two decimals")
	assert.InDelta(t, 250.0025, income.QuarterAmount, 1e-9)
	assert.InDelta(t, 100.001, income.TenthAmount, 1e-9)
	assert.InDelta(t, 50.0005, income.TwentiethAmount, 1e-9)
	repo.AssertExpectations(t)
}

func TestAddIncomeUnknownUser(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByID", mock.Anything, "missing").Return(nil, nil)

	svc := newTestService(repo)
	_, err := svc.AddIncome(context.Background(), actor, models.AddIncomeRequest{
		UserID: "missing",
		Year:   2025,
		Month:  6,
		Amount: 100,
	})

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddIncomeDuplicatePeriodIsConflict(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
	repo.On("GetIncomeForPeriod", mock.Anything, "u1", 2025, 6).Return(&models.Income{ID: "i1"}, nil)

	svc := newTestService(repo)
	_, err := svc.AddIncome(context.Background(), actor, models.AddIncomeRequest{
		Year:   2025,
		Month:  6,
		Amount: 100,
	})

	assert.True(t, errors.Is(err, ErrConflict))
}

func TestAddIncomeLostRaceIsConflictToo(t *testing.T) {
	// Pre-check passes, but a concurrent submission wins the insert.
	// The constraint violation must surface as the same conflict.
	repo := new(mocks.Repository)
	repo.On("GetUserByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
	repo.On("GetIncomeForPeriod", mock.Anything, "u1", 2025, 6).Return(nil, nil)
	repo.On("CreateIncome", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	svc := newTestService(repo)
	_, err := svc.AddIncome(context.Background(), actor, models.AddIncomeRequest{
		Year:   2025,
		Month:  6,
		Amount: 100,
	})

	assert.True(t, errors.Is(err, ErrConflict))
}

func TestUpdateIncomeRefreshesSubmissionAndAuditFields(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetIncomeByID", mock.Anything, "i1").Return(&models.Income{
		ID:             "i1",
		UserID:         "u2",
		Year:           2025,
		Month:          4,
		Amount:         500,
		SubmissionDate: testNow.AddDate(0, -2, 0),
	}, nil)
	repo.On("UpdateIncome", mock.Anything, mock.AnythingOfType("*models.Income")).Return(nil)

	svc := newTestService(repo)
	income, err := svc.UpdateIncome(context.Background(), actor, "i1", models.UpdateIncomeRequest{
		Amount:   750,
		Comments: "corrected",
	})

	assert.NoError(t, err)
	assert.Equal(t, 750.0, income.Amount)
	assert.Equal(t, 2025, income.Year, "unset fields keep their values")
	assert.Equal(t, 4, income.Month)
	assert.Equal(t, testNow, income.SubmissionDate)
	assert.Equal(t, "u1", *income.UpdatedBy)
	assert.Equal(t, 187.5, income.QuarterAmount, "fractions recomputed from the new amount")
}

func TestUpdateIncomeOntoOccupiedPeriodIsConflict(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetIncomeByID", mock.Anything, "i1").Return(&models.Income{ID: "i1", Year: 2025, Month: 4, Amount: 1}, nil)
	repo.On("UpdateIncome", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	svc := newTestService(repo)
	_, err := svc.UpdateIncome(context.Background(), actor, "i1", models.UpdateIncomeRequest{Month: 5})

	assert.True(t, errors.Is(err, ErrConflict))
}

func TestDeleteIncomeReturnsRemovedRecord(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetIncomeByID", mock.Anything, "i1").Return(&models.Income{ID: "i1", Amount: 42}, nil)
	repo.On("DeleteIncome", mock.Anything, "i1").Return(nil)

	svc := newTestService(repo)
	income, err := svc.DeleteIncome(context.Background(), "i1")

	assert.NoError(t, err)
	assert.Equal(t, 42.0, income.Amount)
	repo.AssertExpectations(t)
}

func TestComputeStats(t *testing.T) {
	t.Run("empty yields zeroes", func(t *testing.T) {
		stats := computeStats(nil)
		assert.Equal(t, 0, stats.TotalRecords)
		assert.Equal(t, 0.0, stats.AverageAmount)
		assert.Equal(t, 0.0, stats.LowestAmount, "no sentinel minimum leaks out")
	})

	t.Run("multiple records", func(t *testing.T) {
		stats := computeStats([]models.Income{
			{Amount: 100},
			{Amount: 300},
			{Amount: 200},
		})
		assert.Equal(t, 3, stats.TotalRecords)
		assert.Equal(t, 600.0, stats.TotalAmount)
		assert.Equal(t, 200.0, stats.AverageAmount)
		assert.Equal(t, 300.0, stats.HighestAmount)
		assert.Equal(t, 100.0, stats.LowestAmount)
	})
}

func TestGroupBranchIncomePreservesOrderAndTotals(t *testing.T) {
	when := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)
	rows := []models.IncomeWithOwner{
		{Year: 2025, Month: 5, Amount: 100, UserName: "Alice", SubmissionDate: when},
		{Year: 2025, Month: 5, Amount: 150, UserName: "Bob", SubmissionDate: when},
		{Year: 2025, Month: 4, Amount: 90, UserName: "Alice", SubmissionDate: when},
	}

	groups := groupBranchIncome(rows)

	assert.Len(t, groups, 2)
	assert.Equal(t, models.Period{Year: 2025, Month: 5}, groups[0].Period)
	assert.Equal(t, 250.0, groups[0].TotalAmount)
	assert.Equal(t, 2, groups[0].RecordCount)
	assert.Equal(t, "Alice", groups[0].Records[0].UserName)
	assert.Equal(t, models.Period{Year: 2025, Month: 4}, groups[1].Period)
	assert.Equal(t, 90.0, groups[1].TotalAmount)
}

func TestGetUserIncomeMonthFilterReturnsFlatList(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByID", mock.Anything, "u2").Return(&models.User{ID: "u2", Name: "Bob", BranchID: strPtr("b1")}, nil)
	repo.On("GetBranchByID", mock.Anything, "b1").Return(&models.Branch{ID: "b1", Name: "Central", Code: "CTR"}, nil)
	repo.On("ListIncomeByUser", mock.Anything, "u2", 2025, 5).Return([]models.Income{{ID: "i1", Amount: 120}}, nil)

	svc := newTestService(repo)
	resp, err := svc.GetUserIncome(context.Background(), "u2", 2025, 5)

	assert.NoError(t, err)
	assert.Equal(t, "CTR", resp.User.Branch.Code)
	assert.Equal(t, 1, resp.Stats.TotalRecords)
	records, ok := resp.Data.([]models.Income)
	assert.True(t, ok, "month filter yields a flat list")
	assert.Len(t, records, 1)
}

func TestGetUserIncomeWithoutMonthGroupsByPeriod(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetUserByID", mock.Anything, "u2").Return(&models.User{ID: "u2", Name: "Bob"}, nil)
	repo.On("ListIncomeByUser", mock.Anything, "u2", 0, 0).Return([]models.Income{
		{ID: "i2", Year: 2025, Month: 5, Amount: 200},
		{ID: "i1", Year: 2025, Month: 4, Amount: 100},
	}, nil)

	svc := newTestService(repo)
	resp, err := svc.GetUserIncome(context.Background(), "u2", 0, 0)

	assert.NoError(t, err)
	groups, ok := resp.Data.([]models.IncomeGroup)
	assert.True(t, ok)
	assert.Len(t, groups, 2)
	assert.Equal(t, 300.0, resp.Stats.TotalAmount)
	assert.Equal(t, 200.0, resp.Stats.HighestAmount)
	assert.Equal(t, 100.0, resp.Stats.LowestAmount)
}

func TestGetBranchIncomeUnknownBranch(t *testing.T) {
	repo := new(mocks.Repository)
	repo.On("GetBranchByID", mock.Anything, "nope").Return(nil, nil)

	svc := newTestService(repo)
	_, err := svc.GetBranchIncome(context.Background(), "nope", 0, 0)

	assert.True(t, errors.Is(err, ErrNotFound))
}
