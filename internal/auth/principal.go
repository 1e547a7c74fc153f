// Package auth authenticates credentials, issues and validates bearer tokens
// and carries the resulting Principal through request contexts.
package auth

import (
	"context"
	"fmt"

	"github.com/ledgerbank/backend/internal/models"
)

// Identity is shared by every principal kind.
type Identity struct {
	UserID int64
	Email  string
}

// Principal is the authenticated caller. The set of implementations is
// closed: Customer, Employee and Admin.
type Principal interface {
	Role() models.Role
	Ident() Identity
	principal()
}

type Customer struct {
	Identity
	AccountID  int64
	CustomerID int64
}

type Employee struct {
	Identity
	EmployeeID int64
}

type Admin struct {
	Identity
	EmployeeID int64
}

func (Customer) Role() models.Role { return models.RoleCustomer }
func (Employee) Role() models.Role { return models.RoleEmployee }
func (Admin) Role() models.Role    { return models.RoleAdmin }

func (c Customer) Ident() Identity { return c.Identity }
func (e Employee) Ident() Identity { return e.Identity }
func (a Admin) Ident() Identity    { return a.Identity }

func (Customer) principal() {}
func (Employee) principal() {}
func (Admin) principal()    {}

// IsStaff reports whether p acts on behalf of the bank.
func IsStaff(p Principal) bool {
	switch p.(type) {
	case Employee, Admin:
		return true
	default:
		return false
	}
}

// ActorID is the id recorded as executed_by on movements initiated by p.
func ActorID(p Principal) int64 {
	return p.Ident().UserID
}

// PrincipalFromCredential builds the principal a credential authenticates as.
func PrincipalFromCredential(cred models.Credential) (Principal, error) {
	id := Identity{UserID: cred.UserID, Email: cred.Email}
	switch cred.Role {
	case models.RoleCustomer:
		if cred.AccountID == nil || cred.CustomerID == nil {
			return nil, fmt.Errorf("%w: customer credential %d has no linked account", ErrInvalidCredential, cred.UserID)
		}
		return Customer{Identity: id, AccountID: *cred.AccountID, CustomerID: *cred.CustomerID}, nil
	case models.RoleEmployee, models.RoleAdmin:
		if cred.EmployeeID == nil {
			return nil, fmt.Errorf("%w: staff credential %d has no employee", ErrInvalidCredential, cred.UserID)
		}
		if cred.Role == models.RoleAdmin {
			return Admin{Identity: id, EmployeeID: *cred.EmployeeID}, nil
		}
		return Employee{Identity: id, EmployeeID: *cred.EmployeeID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidCredential, cred.Role)
	}
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by the auth middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
