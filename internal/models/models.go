package models

import (
	"time"
)

// Role classifies what a user is allowed to see and do
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether the role is one of the recognized values
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// User represents an account in the system
type User struct {
	ID        string     `db:"id" json:"_id"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	Password  string     `db:"password" json:"-"` // Password hash, not returned in JSON
	Role      Role       `db:"role" json:"role"`
	BranchID  *string    `db:"branch_id" json:"branchId,omitempty"`
	IsActive  bool       `db:"is_active" json:"isActive"`
	LastLogin *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Branch represents an organizational unit users and admins belong to
type Branch struct {
	ID        string    `db:"id" json:"_id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Income represents one user's submission for a calendar month.
// At most one record exists per (userId, year, month); the database
// enforces this with a unique constraint.
//
// The fractional amounts are derived at write time and stored for
// downstream reporting; nothing in this codebase reads them back.
type Income struct {
	ID              string    `db:"id" json:"_id"`
	UserID          string    `db:"user_id" json:"userId"`
	Year            int       `db:"year" json:"year"`
	Month           int       `db:"month" json:"month"`
	Amount          float64   `db:"amount" json:"amount"`
	QuarterAmount   float64   `db:"quarter_amount" json:"quarterAmount"`
	TenthAmount     float64   `db:"tenth_amount" json:"tenthAmount"`
	TwentiethAmount float64   `db:"twentieth_amount" json:"twentiethAmount"`
	Comments        string    `db:"comments" json:"comments,omitempty"`
	SubmissionDate  time.Time `db:"submission_date" json:"submissionDate"`
	UpdatedBy       *string   `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Identity is the decoded content of a session token, attached to the
// request context by the auth middleware. Role and branch reflect the
// user at login time; changes take effect on the next login.
type Identity struct {
	UserID   string
	Email    string
	Role     Role
	BranchID *string
}
