package models

import "time"

// Request models
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     string  `json:"role"`
	Branch   *string `json:"branch"`
	IsActive *bool   `json:"isActive"`
}

type UpdateUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Branch   *string `json:"branch"`
}

type CreateBranchRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

type UpdateBranchRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsActive *bool  `json:"isActive"`
}

// AddIncomeRequest fields are validated in the service so each missing
// field produces its own message, matching the API contract.
type AddIncomeRequest struct {
	UserID   string  `json:"userId"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Amount   float64 `json:"amount"`
	Comments string  `json:"comments"`
}

type UpdateIncomeRequest struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Amount   float64 `json:"amount"`
	Comments string  `json:"comments"`
}

// MissingIncomeRequest carries the report filter; zero year/month
// default to the current date.
type MissingIncomeRequest struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	BranchID string `json:"branchId"`
}

// Response envelope shared by all endpoints
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Msg     string      `json:"msg,omitempty"`
}

// BranchSummary is the trimmed branch reference attached to report rows
type BranchSummary struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// UserWithBranch is a user with its branch reference resolved
type UserWithBranch struct {
	User
	Branch *Branch `json:"branch,omitempty"`
}

// LoginResponse returns the sanitized user together with the token
type LoginResponse struct {
	Success bool           `json:"success"`
	Data    UserWithBranch `json:"data"`
	Token   string         `json:"token"`
	Msg     string         `json:"msg"`
}

// IncomeWithOwner is an income record joined to its submitter and branch
type IncomeWithOwner struct {
	ID             string    `db:"id" json:"_id"`
	Year           int       `db:"year" json:"year"`
	Month          int       `db:"month" json:"month"`
	Amount         float64   `db:"amount" json:"amount"`
	Comments       string    `db:"comments" json:"comments,omitempty"`
	SubmissionDate time.Time `db:"submission_date" json:"submissionDate"`
	UserName       string    `db:"user_name" json:"userName"`
	UserEmail      string    `db:"user_email" json:"userEmail"`
	BranchName     string    `db:"branch_name" json:"branchName"`
	BranchCode     string    `db:"branch_code" json:"branchCode"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type IncomeListResponse struct {
	Success     bool              `json:"success"`
	Count       int               `json:"count"`
	TotalAmount float64           `json:"totalAmount"`
	Data        []IncomeWithOwner `json:"data"`
}

// Period identifies a calendar month within a rollup
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// GroupRecord is one constituent record inside a rollup group. Branch
// rollups carry the submitter name; user rollups carry the record id and
// timestamps instead.
type GroupRecord struct {
	ID             string     `json:"_id,omitempty"`
	Amount         float64    `json:"amount"`
	UserName       string     `json:"userName,omitempty"`
	SubmissionDate time.Time  `json:"submissionDate"`
	Comments       string     `json:"comments,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// IncomeGroup is a (year, month) rollup group
type IncomeGroup struct {
	Period      Period        `json:"_id"`
	TotalAmount float64       `json:"totalAmount"`
	RecordCount int           `json:"recordCount,omitempty"`
	Records     []GroupRecord `json:"records"`
}

type BranchIncomeResponse struct {
	Success        bool          `json:"success"`
	BranchName     string        `json:"branchName"`
	BranchCode     string        `json:"branchCode"`
	TotalAmount    float64       `json:"totalAmount"`
	MonthlyRecords []IncomeGroup `json:"monthlyRecords"`
}

// IncomeStats summarizes a set of income records. With no records,
// average and lowest are reported as zero.
type IncomeStats struct {
	TotalRecords  int     `json:"totalRecords"`
	TotalAmount   float64 `json:"totalAmount"`
	AverageAmount float64 `json:"averageAmount"`
	HighestAmount float64 `json:"highestAmount"`
	LowestAmount  float64 `json:"lowestAmount"`
}

// UserIncomeOwner identifies whose records a user rollup covers
type UserIncomeOwner struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Branch *BranchSummary `json:"branch"`
}

// UserIncomeResponse holds a user rollup. Data is a flat []Income when a
// month filter was given, []IncomeGroup otherwise.
type UserIncomeResponse struct {
	Success bool            `json:"success"`
	User    UserIncomeOwner `json:"user"`
	Stats   IncomeStats     `json:"stats"`
	Data    interface{}     `json:"data"`
}

// MissingIncomeCandidate is a row produced by the missing-income query:
// an active user with no record for the target period, flagged with
// whether any earlier record exists.
type MissingIncomeCandidate struct {
	ID                 string     `db:"id"`
	Name               string     `db:"name"`
	Email              string     `db:"email"`
	BranchID           *string    `db:"branch_id"`
	LastLogin          *time.Time `db:"last_login"`
	HasSubmittedBefore bool       `db:"has_submitted_before"`
}

// MissingIncomeUser is a report entry with the branch reference resolved
type MissingIncomeUser struct {
	ID        string         `json:"_id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Branch    *BranchSummary `json:"branch"`
	LastLogin *time.Time     `json:"lastLogin"`
}

type MissingIncomeFilter struct {
	Year   int            `json:"year"`
	Month  int            `json:"month"`
	Branch *BranchSummary `json:"branch"`
}

type MissingIncomeSummary struct {
	TotalUsers                int `json:"totalUsers"`
	NeverSubmittedCount       int `json:"neverSubmittedCount"`
	MissingSelectedMonthCount int `json:"missingSelectedMonthCount"`
}

type MissingIncomeGroup struct {
	Count int                 `json:"count"`
	Users []MissingIncomeUser `json:"users"`
}

// MissingIncomeReport partitions the users without a submission for the
// target period into first-time offenders and lapsed submitters.
type MissingIncomeReport struct {
	Timestamp            time.Time            `json:"timestamp"`
	Filter               MissingIncomeFilter  `json:"filter"`
	Summary              MissingIncomeSummary `json:"summary"`
	NeverSubmitted       MissingIncomeGroup   `json:"neverSubmitted"`
	MissingSelectedMonth MissingIncomeGroup   `json:"missingSelectedMonth"`
}

// Dashboard views, one per role. The service dispatches exhaustively on
// the caller's role and returns exactly one of these.
type DashboardUserInfo struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Branch    *string    `json:"branch,omitempty"`
	LastLogin *time.Time `json:"lastLogin"`
	IsActive  bool       `json:"isActive"`
}

type UserDashboard struct {
	UserInfo      DashboardUserInfo `json:"userInfo"`
	IncomeSummary []Income          `json:"incomeSummary"`
}

// AdminDashboard reports the admin's own branch. IncomeSummary is null
// when no user in the branch has any records, so callers can tell
// "nobody submitted" apart from a mix of empty and non-empty histories.
type AdminDashboard struct {
	IncomeSummary [][]Income `json:"incomeSummary"`
	Users         []User     `json:"users"`
	TotalUsers    int        `json:"totalUsers"`
	BranchInfo    *Branch    `json:"branchInfo"`
}

type SuperadminDashboard struct {
	UserInfo         DashboardUserInfo `json:"userInfo"`
	TotalUsers       int               `json:"totalUsers"`
	TotalSuperadmins int               `json:"totalSuperadmins"`
	TotalAdmins      int               `json:"totalAdmins"`
	TotalBranches    int               `json:"totalBranches"`
}

// ManagerSummary is the admin shown alongside a branch
type ManagerSummary struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// BranchWithManager pairs a branch with its admin, if one exists
type BranchWithManager struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Code     string          `json:"code"`
	IsActive bool            `json:"isActive"`
	Manager  *ManagerSummary `json:"manager"`
}

// BranchManagerDetail is a full branch record with its manager attached
type BranchManagerDetail struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Manager   *ManagerSummary `json:"manager"`
}
