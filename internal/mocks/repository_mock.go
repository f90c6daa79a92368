package mocks

import (
	"context"
	"time"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/stretchr/testify/mock"
)

// Repository is a testify mock of repository.Repository
type Repository struct{ mock.Mock }

func (m *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *Repository) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *Repository) ListUsersByBranch(ctx context.Context, branchID string, role models.Role, activeOnly bool) ([]models.User, error) {
	args := m.Called(ctx, branchID, role, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *Repository) UpdateLastLogin(ctx context.Context, userID string, when time.Time) error {
	return m.Called(ctx, userID, when).Error(0)
}

func (m *Repository) CountUsersByRole(ctx context.Context, role models.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

func (m *Repository) CountUsersInBranch(ctx context.Context, branchID string, role models.Role, activeOnly bool) (int, error) {
	args := m.Called(ctx, branchID, role, activeOnly)
	return args.Int(0), args.Error(1)
}

func (m *Repository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return m.Called(ctx, branch).Error(0)
}

func (m *Repository) GetBranchByID(ctx context.Context, id string) (*models.Branch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Branch), args.Error(1)
}

func (m *Repository) GetBranchByCode(ctx context.Context, code, excludeID string) (*models.Branch, error) {
	args := m.Called(ctx, code, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Branch), args.Error(1)
}

func (m *Repository) ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Branch), args.Error(1)
}

func (m *Repository) UpdateBranch(ctx context.Context, branch *models.Branch) error {
	return m.Called(ctx, branch).Error(0)
}

func (m *Repository) CountBranches(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *Repository) CreateIncome(ctx context.Context, income *models.Income) error {
	return m.Called(ctx, income).Error(0)
}

func (m *Repository) GetIncomeByID(ctx context.Context, id string) (*models.Income, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Income), args.Error(1)
}

func (m *Repository) GetIncomeForPeriod(ctx context.Context, userID string, year, month int) (*models.Income, error) {
	args := m.Called(ctx, userID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Income), args.Error(1)
}

func (m *Repository) HasIncomeForPeriod(ctx context.Context, userID string, year, month int) (bool, error) {
	args := m.Called(ctx, userID, year, month)
	return args.Bool(0), args.Error(1)
}

func (m *Repository) UpdateIncome(ctx context.Context, income *models.Income) error {
	return m.Called(ctx, income).Error(0)
}

func (m *Repository) DeleteIncome(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Repository) ListIncomeByUser(ctx context.Context, userID string, year, month int) ([]models.Income, error) {
	args := m.Called(ctx, userID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Income), args.Error(1)
}

func (m *Repository) ListIncomeWithOwners(ctx context.Context, year, month int, branchID string) ([]models.IncomeWithOwner, error) {
	args := m.Called(ctx, year, month, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.IncomeWithOwner), args.Error(1)
}

func (m *Repository) MissingIncomeCandidates(ctx context.Context, year, month int, branchID string) ([]models.MissingIncomeCandidate, error) {
	args := m.Called(ctx, year, month, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MissingIncomeCandidate), args.Error(1)
}
