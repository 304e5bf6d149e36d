package cmd

import (
	"context"
	"fmt"

	"inventory-manager/core/database"
	"inventory-manager/feature/reservation"

	"github.com/spf13/cobra"
)

// reconcileCmd runs the reservation lifecycle sweeps once and exits.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the reservation lifecycle sweeps once",
	Long: `Expires reservations whose end date has passed, then cancels the
reservations the current stock no longer covers, oldest first keeping what
fits. Both sweeps are idempotent; running them twice changes nothing.`,
	RunE: runReconcile,
}

func init() {
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	_, logg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logg.Sync()

	ctx := context.Background()
	svc := reservation.NewService(db, logg, nil, nil, database.SupportsRowLocks(db))

	expired, err := svc.ExpireSweep(ctx)
	if err != nil {
		return fmt.Errorf("expire sweep: %w", err)
	}

	cancelled, err := svc.Allocator().ReleaseOverflow(ctx)
	if err != nil {
		return fmt.Errorf("overflow release: %w", err)
	}

	fmt.Printf("reconcile complete: expired=%d cancelled=%d\n", expired, cancelled)
	return nil
}
