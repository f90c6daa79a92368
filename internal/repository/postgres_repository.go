package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert or update violates a unique
// constraint. Callers translate it to a domain-level conflict.
var ErrDuplicate = errors.New("duplicate key")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	ListUsersByBranch(ctx context.Context, branchID string, role models.Role, activeOnly bool) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID string, when time.Time) error
	CountUsersByRole(ctx context.Context, role models.Role) (int, error)
	CountUsersInBranch(ctx context.Context, branchID string, role models.Role, activeOnly bool) (int, error)

	// Branch operations
	CreateBranch(ctx context.Context, branch *models.Branch) error
	GetBranchByID(ctx context.Context, id string) (*models.Branch, error)
	GetBranchByCode(ctx context.Context, code, excludeID string) (*models.Branch, error)
	ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error)
	UpdateBranch(ctx context.Context, branch *models.Branch) error
	CountBranches(ctx context.Context) (int, error)

	// Income operations
	CreateIncome(ctx context.Context, income *models.Income) error
	GetIncomeByID(ctx context.Context, id string) (*models.Income, error)
	GetIncomeForPeriod(ctx context.Context, userID string, year, month int) (*models.Income, error)
	HasIncomeForPeriod(ctx context.Context, userID string, year, month int) (bool, error)
	UpdateIncome(ctx context.Context, income *models.Income) error
	DeleteIncome(ctx context.Context, id string) error
	ListIncomeByUser(ctx context.Context, userID string, year, month int) ([]models.Income, error)
	ListIncomeWithOwners(ctx context.Context, year, month int, branchID string) ([]models.IncomeWithOwner, error)

	// Reporting operations
	MissingIncomeCandidates(ctx context.Context, year, month int, branchID string) ([]models.MissingIncomeCandidate, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// isDuplicateKey reports whether err is a Postgres unique violation
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password, role, branch_id, is_active, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Password, user.Role,
		user.BranchID, user.IsActive, user.LastLogin, user.CreatedAt, user.UpdatedAt)

	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT * FROM users ORDER BY created_at`

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *PostgresRepository) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	query := `SELECT * FROM users WHERE role = $1 ORDER BY name`

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *PostgresRepository) ListUsersByBranch(ctx context.Context, branchID string, role models.Role, activeOnly bool) ([]models.User, error) {
	query := `SELECT * FROM users WHERE branch_id = $1`
	args := []interface{}{branchID}

	if role != "" {
		query += ` AND role = $2`
		args = append(args, role)
	}
	if activeOnly {
		query += ` AND is_active = TRUE`
	}

	query += ` ORDER BY name`

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password = $3, role = $4, branch_id = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`

	user.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.Password, user.Role,
		user.BranchID, user.IsActive, user.UpdatedAt, user.ID)

	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, userID string, when time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, when, userID)
	return err
}

func (r *PostgresRepository) CountUsersByRole(ctx context.Context, role models.Role) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE role = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, role); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PostgresRepository) CountUsersInBranch(ctx context.Context, branchID string, role models.Role, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE branch_id = $1 AND role = $2`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, branchID, role); err != nil {
		return 0, err
	}

	return count, nil
}

// Branch repository methods
func (r *PostgresRepository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	query := `
		INSERT INTO branches (id, name, code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if branch.ID == "" {
		branch.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	branch.CreatedAt = now
	branch.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		branch.ID, branch.Name, branch.Code, branch.IsActive, branch.CreatedAt, branch.UpdatedAt)

	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) GetBranchByID(ctx context.Context, id string) (*models.Branch, error) {
	query := `SELECT * FROM branches WHERE id = $1`

	var branch models.Branch
	err := r.db.GetContext(ctx, &branch, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Branch not found
		}
		return nil, err
	}

	return &branch, nil
}

// GetBranchByCode looks up a branch by its code, optionally excluding one
// id. Used for the duplicate-code pre-check on create and update.
func (r *PostgresRepository) GetBranchByCode(ctx context.Context, code, excludeID string) (*models.Branch, error) {
	query := `SELECT * FROM branches WHERE code = $1`
	args := []interface{}{code}

	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}

	var branch models.Branch
	err := r.db.GetContext(ctx, &branch, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &branch, nil
}

func (r *PostgresRepository) ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	query := `SELECT * FROM branches`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at`

	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, err
	}

	return branches, nil
}

func (r *PostgresRepository) UpdateBranch(ctx context.Context, branch *models.Branch) error {
	query := `
		UPDATE branches
		SET name = $1, code = $2, is_active = $3, updated_at = $4
		WHERE id = $5
	`

	branch.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		branch.Name, branch.Code, branch.IsActive, branch.UpdatedAt, branch.ID)

	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) CountBranches(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM branches`

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}

	return count, nil
}

// Income repository methods
func (r *PostgresRepository) CreateIncome(ctx context.Context, income *models.Income) error {
	query := `
		INSERT INTO incomes (id, user_id, year, month, amount, quarter_amount, tenth_amount,
			twentieth_amount, comments, submission_date, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	if income.ID == "" {
		income.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	income.CreatedAt = now
	income.UpdatedAt = now
	if income.SubmissionDate.IsZero() {
		income.SubmissionDate = now
	}

	_, err := r.db.ExecContext(ctx, query,
		income.ID, income.UserID, income.Year, income.Month, income.Amount,
		income.QuarterAmount, income.TenthAmount, income.TwentiethAmount,
		income.Comments, income.SubmissionDate, income.UpdatedBy,
		income.CreatedAt, income.UpdatedAt)

	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) GetIncomeByID(ctx context.Context, id string) (*models.Income, error) {
	query := `SELECT * FROM incomes WHERE id = $1`

	var income models.Income
	err := r.db.GetContext(ctx, &income, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Income not found
		}
		return nil, err
	}

	return &income, nil
}

func (r *PostgresRepository) GetIncomeForPeriod(ctx context.Context, userID string, year, month int) (*models.Income, error) {
	query := `SELECT * FROM incomes WHERE user_id = $1 AND year = $2 AND month = $3`

	var income models.Income
	err := r.db.GetContext(ctx, &income, query, userID, year, month)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &income, nil
}

func (r *PostgresRepository) HasIncomeForPeriod(ctx context.Context, userID string, year, month int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM incomes WHERE user_id = $1 AND year = $2 AND month = $3)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, year, month); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *PostgresRepository) UpdateIncome(ctx context.Context, income *models.Income) error {
	query := `
		UPDATE incomes
		SET year = $1, month = $2, amount = $3, quarter_amount = $4, tenth_amount = $5,
			twentieth_amount = $6, comments = $7, submission_date = $8, updated_by = $9, updated_at = $10
		WHERE id = $11
	`

	income.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		income.Year, income.Month, income.Amount, income.QuarterAmount,
		income.TenthAmount, income.TwentiethAmount, income.Comments,
		income.SubmissionDate, income.UpdatedBy, income.UpdatedAt, income.ID)

	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepository) DeleteIncome(ctx context.Context, id string) error {
	query := `DELETE FROM incomes WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ListIncomeByUser returns a user's records, most recent period first.
// Zero year/month means no filter on that field.
func (r *PostgresRepository) ListIncomeByUser(ctx context.Context, userID string, year, month int) ([]models.Income, error) {
	query := `SELECT * FROM incomes WHERE user_id = $1`
	args := []interface{}{userID}

	if year > 0 {
		args = append(args, year)
		query += ` AND year = $2`
	}
	if month > 0 {
		args = append(args, month)
		if year > 0 {
			query += ` AND month = $3`
		} else {
			query += ` AND month = $2`
		}
	}

	query += ` ORDER BY year DESC, month DESC`

	var incomes []models.Income
	if err := r.db.SelectContext(ctx, &incomes, query, args...); err != nil {
		return nil, err
	}

	return incomes, nil
}

// ListIncomeWithOwners joins income records to their submitter and the
// submitter's branch. Records whose user has no branch are excluded, as
// only branch members submit income.
func (r *PostgresRepository) ListIncomeWithOwners(ctx context.Context, year, month int, branchID string) ([]models.IncomeWithOwner, error) {
	query := `
		SELECT i.id, i.year, i.month, i.amount, i.comments, i.submission_date,
			u.name AS user_name, u.email AS user_email,
			b.name AS branch_name, b.code AS branch_code,
			i.created_at, i.updated_at
		FROM incomes i
		JOIN users u ON u.id = i.user_id
		JOIN branches b ON b.id = u.branch_id
	`

	var args []interface{}

	addCond := func(column string, arg interface{}) {
		args = append(args, arg)
		if len(args) == 1 {
			query += " WHERE "
		} else {
			query += " AND "
		}
		query += fmt.Sprintf("%s = $%d", column, len(args))
	}

	if year > 0 {
		addCond("i.year", year)
	}
	if month > 0 {
		addCond("i.month", month)
	}
	if branchID != "" {
		addCond("b.id", branchID)
	}

	query += ` ORDER BY i.year DESC, i.month DESC, i.submission_date DESC`

	var records []models.IncomeWithOwner
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}

	return records, nil
}

// MissingIncomeCandidates returns the active users with role "user"
// (optionally limited to one branch) that have no income record for the
// target period, flagged with whether any strictly earlier record
// exists. Sorted by name ascending.
func (r *PostgresRepository) MissingIncomeCandidates(ctx context.Context, year, month int, branchID string) ([]models.MissingIncomeCandidate, error) {
	query := `
		SELECT u.id, u.name, u.email, u.branch_id, u.last_login,
			EXISTS(
				SELECT 1 FROM incomes i
				WHERE i.user_id = u.id
					AND (i.year < $1 OR (i.year = $1 AND i.month < $2))
				LIMIT 1
			) AS has_submitted_before
		FROM users u
		WHERE u.role = 'user'
			AND u.is_active = TRUE
			AND NOT EXISTS(
				SELECT 1 FROM incomes i
				WHERE i.user_id = u.id AND i.year = $1 AND i.month = $2
			)
	`

	args := []interface{}{year, month}

	if branchID != "" {
		query += ` AND u.branch_id = $3`
		args = append(args, branchID)
	}

	query += ` ORDER BY u.name ASC`

	var candidates []models.MissingIncomeCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, err
	}

	return candidates, nil
}
