package cmd

import (
	"context"
	"fmt"
	"syscall"

	"inventory-manager/core/credentials"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userRole string

// userCmd is the parent command for credential administration.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage reservation user credentials",
}

// userSetCmd creates or updates one credential, prompting for the password.
var userSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Create or update a user credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserSet,
}

func init() {
	userSetCmd.Flags().StringVar(&userRole, "role", "sales", "Role stored with the credential")
	userCmd.AddCommand(userSetCmd)
	RootCmd.AddCommand(userCmd)
}

func runUserSet(cmd *cobra.Command, args []string) error {
	_, logg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logg.Sync()

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if len(password) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	repo := credentials.NewRepository(db, 0)
	if err := repo.Upsert(context.Background(), args[0], string(password), userRole); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	fmt.Printf("credential stored for %q (role %s)\n", args[0], userRole)
	return nil
}
