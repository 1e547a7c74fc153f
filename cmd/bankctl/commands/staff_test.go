package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStaff(t *testing.T) {
	store := memory.NewStore()
	hasher := auth.NewPasswordHasher(config.Argon2Config{Time: 1, Memory: 64, Threads: 1, KeyLength: 16, SaltLength: 8})
	ctx := context.Background()

	var out bytes.Buffer
	err := createStaff(ctx, store, hasher, staffOptions{
		email:     " Teller@Bank.test ",
		firstName: "Ada",
		lastName:  "Byron",
		position:  "Teller",
		role:      "Employee",
		password:  "open-sesame",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "created employee teller@bank.test")

	cred, err := store.CredentialByEmail(ctx, "teller@bank.test")
	require.NoError(t, err)
	assert.True(t, hasher.Verify("open-sesame", cred.PasswordHash))

	err = createStaff(ctx, store, hasher, staffOptions{email: "teller@bank.test", role: "employee", password: "open-sesame"}, &out)
	assert.ErrorContains(t, err, "already registered")

	err = createStaff(ctx, store, hasher, staffOptions{email: "new@bank.test", role: "employee"}, &out)
	assert.ErrorContains(t, err, passwordEnv)

	err = createStaff(ctx, store, hasher, staffOptions{email: "new@bank.test", role: "customer", password: "open-sesame"}, &out)
	assert.Error(t, err)
}

func TestMigratePrint(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"migrate", "--print"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		printSchema = false
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "CREATE TABLE IF NOT EXISTS account")
}
