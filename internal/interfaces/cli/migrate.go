package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/trademark-search/internal/infrastructure/database/postgres"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/pkg/errors"
)

// Migration entry points, swapped in tests.
var (
	migrateUp     = postgres.RunMigrations
	migrateDown   = postgres.RollbackMigration
	migrateStatus = postgres.MigrationStatus
	migrateForce  = postgres.ForceMigrationVersion
)

// NewMigrateCmd creates the migrate command and its up, down, status and
// force subcommands.  They act on database.* regardless of search.backend.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, dsn, err := migrateTarget(cmd)
			if err != nil {
				return err
			}
			if err := migrateUp(dsn); err != nil {
				return err
			}
			cliCtx.Logger.Info("Database migrations applied")
			PrintSuccess(cmd, "schema is up to date")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, dsn, err := migrateTarget(cmd)
			if err != nil {
				return err
			}
			if err := migrateDown(dsn, steps); err != nil {
				return err
			}
			cliCtx.Logger.Info("Database migrations rolled back", logging.Int("steps", steps))
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, dsn, err := migrateTarget(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := migrateStatus(dsn)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, map[string]interface{}{"version": version, "dirty": dirty})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}

	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Record a schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return errors.InvalidParam(fmt.Sprintf("invalid version %q", args[0]))
			}
			_, dsn, err := migrateTarget(cmd)
			if err != nil {
				return err
			}
			if err := migrateForce(dsn, version); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("forced version %d", version))
			return nil
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

func migrateTarget(cmd *cobra.Command) (*CLIContext, string, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, "", err
	}
	return cliCtx, postgres.BuildDSN(cliCtx.Config.Database), nil
}
