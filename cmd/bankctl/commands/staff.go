package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
	"github.com/ledgerbank/backend/internal/storage/postgres"
	"github.com/spf13/cobra"
)

// passwordEnv lets scripts pass the password without exposing it in argv.
const passwordEnv = "BANKCTL_STAFF_PASSWORD"

type staffOptions struct {
	email     string
	firstName string
	lastName  string
	position  string
	role      string
	password  string
}

var staffOpts staffOptions

// createStaffCmd provisions an employee or admin login
var createStaffCmd = &cobra.Command{
	Use:   "create-staff",
	Short: "Create an employee or admin login",
	Long: `Create an employee record and its login credential.

The password is read from --password or, if unset, from ` + passwordEnv + `.

Examples:
  bankctl create-staff --email teller@bank.test --first-name Ada --last-name Byron
  bankctl create-staff --email root@bank.test --role admin --position Administrator`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		db, err := e.openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		opts := staffOpts
		if opts.password == "" {
			opts.password = os.Getenv(passwordEnv)
		}
		return createStaff(cmd.Context(), postgres.NewStore(db), auth.NewPasswordHasher(e.cfg.Argon2), opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(createStaffCmd)

	f := createStaffCmd.Flags()
	f.StringVar(&staffOpts.email, "email", "", "Login email (required)")
	f.StringVar(&staffOpts.firstName, "first-name", "", "First name")
	f.StringVar(&staffOpts.lastName, "last-name", "", "Last name")
	f.StringVar(&staffOpts.position, "position", "Teller", "Job title")
	f.StringVar(&staffOpts.role, "role", string(models.RoleEmployee), "employee or admin")
	f.StringVar(&staffOpts.password, "password", "", "Initial password, at least 8 characters")
	_ = createStaffCmd.MarkFlagRequired("email")
}

func createStaff(ctx context.Context, store storage.CustomerStore, hasher *auth.PasswordHasher, opts staffOptions, out io.Writer) error {
	if opts.password == "" {
		return fmt.Errorf("a password is required, use --password or %s", passwordEnv)
	}

	cred, err := auth.ProvisionStaff(ctx, store, hasher, models.NewStaff{
		FirstName: opts.firstName,
		LastName:  opts.lastName,
		Email:     strings.TrimSpace(opts.email),
		Position:  opts.position,
		Role:      models.Role(strings.ToLower(opts.role)),
	}, opts.password)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return fmt.Errorf("%s is already registered", opts.email)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created %s %s (user %d, employee %d)\n", cred.Role, cred.Email, cred.UserID, *cred.EmployeeID)
	return nil
}
