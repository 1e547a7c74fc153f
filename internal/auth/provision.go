package auth

import (
	"context"
	"fmt"

	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
)

// ProvisionStaff hashes password and creates an employee or admin login.
func ProvisionStaff(ctx context.Context, store storage.CustomerStore, hasher *PasswordHasher, ns models.NewStaff, password string) (models.Credential, error) {
	if ns.Role != models.RoleEmployee && ns.Role != models.RoleAdmin {
		return models.Credential{}, fmt.Errorf("staff role must be %s or %s, got %q", models.RoleEmployee, models.RoleAdmin, ns.Role)
	}
	if len(password) < 8 {
		return models.Credential{}, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return models.Credential{}, err
	}
	ns.PasswordHash = hash

	cred, err := store.CreateStaff(ctx, ns)
	if err != nil {
		return models.Credential{}, fmt.Errorf("create staff %s: %w", ns.Email, err)
	}
	return cred, nil
}
