package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/internal/outwriter"
	"github.com/hockijo/techconnect/internal/store"
	"github.com/hockijo/techconnect/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackendFromViper reads and validates the store backend settings.
func storeBackendFromViper() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("store-backend")))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without the instrument settings.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}

	// Output-related config values (used by list and export)
	cfg.Output = schema.OutputMode(strings.ToLower(viper.GetString("output")))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Precision = viper.GetInt("precision")
	cfg.Width = viper.GetInt("width")
	useColors, err := contract.ParseBoolString(viper.GetString("color"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = useColors
	color.NoColor = !useColors

	if err := store.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for runs commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize the store or create tables,
// allowing migrations to run on a fresh database.
func storeMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = store.GetDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeMigrateSetupWrapper wraps storeMigrateSetup to provide PreRunE for migrate command.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeMigrateSetup()
}

// currentStore returns the initialized acquisition store or exits.
func currentStore() contract.AcquisitionStore {
	var s contract.AcquisitionStore
	if storeManager != nil {
		s = storeManager.GetAcquisitionStore()
	}
	if s == nil {
		contract.LogFatal("Cannot access store", fmt.Errorf("acquisition store is not initialized"))
	}
	return s
}

// runsCmd focused on stored acquisition management.
//
// Note: runs subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by acquisition commands. This avoids instrument
// validation for simple store operations.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored acquisition runs and finesse results",
	Long: `Manage the acquisition store.

Every capture is stored with:
- Run metadata (timestamp, mode, time window, segment count, instrument)
- Channel preambles and time tags
- Segment samples
- Finesse results of later measurements

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  list    - List stored runs
  status  - Show store statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all stored data
  migrate - Run database schema migrations

Examples:
  # List stored runs
  techconnect runs list

  # Export for analysis in pandas/DuckDB
  techconnect runs export --output-file lab-data`,
}

// runsListCmd lists stored runs.
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored acquisition runs",
	Long: `List every stored acquisition run with its capture settings.

Use the run ID with 'techconnect finesse --run-id' to measure a stored run again.

Examples:
  # Table output
  techconnect runs list

  # JSON for scripting
  techconnect runs list --output json`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runs, err := currentStore().ListRuns(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if err := outwriter.NewOutWriter().WriteRuns(runs, cfg); err != nil {
			contract.LogFatal("Failed to write runs", err)
		}
	},
}

// runsStatusCmd shows store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the acquisition store.

Displays:
- Backend type and connection status
- Total number of stored runs
- Last and oldest run timestamps
- Database table sizes

Examples:
  # Check store status
  techconnect runs status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := currentStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStoreStatus(os.Stdout, status)
	},
}

// runsClearCmd clears the store.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs and finesse results",
	Long: `Delete all stored acquisition runs, samples and finesse results.

For SQLite the database file is removed. For MySQL and PostgreSQL the store
tables and the migration version table are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  techconnect runs export --output-file backup
  techconnect runs clear`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// storeMigrateSetup resolves the SQLite connection string to the database file path
		if err := store.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// runsExportCmd exports store data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored data to Parquet for analytics",
	Long: `Export all stored data to Parquet files for use with analytics tools.

Writes four files next to the --output-file prefix:
- <prefix>.runs.parquet     - run metadata
- <prefix>.channels.parquet - channel preambles and time tags
- <prefix>.segments.parquet - segment samples
- <prefix>.finesse.parquet  - finesse results

Requires: --output-file parameter

Examples:
  # Export all data
  techconnect runs export --output-file lab-data

  # Use with DuckDB
  duckdb -c "SELECT * FROM read_parquet('lab-data.finesse.parquet') LIMIT 10"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ExportRuns(rootCtx, currentStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export store data", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the acquisition store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  techconnect runs migrate

  # Rollback to initial state
  techconnect runs migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := store.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
