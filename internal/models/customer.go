package models

import "time"

// Role is the access role attached to a credential.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleCustomer:
		return true
	}
	return false
}

// Customer is an account holder.
type Customer struct {
	ID        int64      `json:"id" db:"id"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	Email     string     `json:"email" db:"email"`
	DOB       *time.Time `json:"dob,omitempty" db:"dob"`
	Gender    string     `json:"gender,omitempty" db:"gender"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Employee is a member of bank staff.
type Employee struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"`
	Position  string `json:"position" db:"position"`
}

// Credential is a row of user_authentication.
type Credential struct {
	UserID       int64      `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         Role       `db:"role"`
	CustomerID   *int64     `db:"customer_id"`
	AccountID    *int64     `db:"account_id"`
	EmployeeID   *int64     `db:"employee_id"`
	DisabledAt   *time.Time `db:"disabled_at"`
}

// NewCustomer is the provisioning input for a customer with account, card and
// credential.
type NewCustomer struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	DOB          *time.Time
	Gender       string
}

// ProvisionedCustomer identifies the rows created for a new customer.
type ProvisionedCustomer struct {
	CustomerID int64 `json:"customer_id"`
	AccountID  int64 `json:"account_id"`
	CardID     int64 `json:"card_id"`
}

// NewStaff is the provisioning input for an employee or admin credential.
type NewStaff struct {
	FirstName    string
	LastName     string
	Email        string
	Position     string
	PasswordHash string
	Role         Role
}
