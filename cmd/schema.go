package cmd

import (
	"sqlagent/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// schemaCmd prints the schema description the agent is given.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the schema description sent to the agent",
	Long: `The schema command prints the schema description embedded in the agent's
instructions: the curated description when one is registered for DB_NAME, or the
introspected tables otherwise. Use --schema-mode to force either source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(flags)
		if err != nil {
			logging.PresentFailure("Invalid configuration", err)
			return errReported
		}
		logger := logging.NewLogger(cfg.Verbose)

		var openErr error
		a := &app{cfg: cfg, logger: logger}
		runWithSpinner("Reading schema", cfg.Verbose, func() {
			a.desc, a.db, openErr = openDatabase(ctx)
		})
		if openErr != nil {
			logging.PresentFailure("Could not connect to the database", openErr)
			return errReported
		}
		a.closers = append(a.closers, func() { _ = a.db.Close() })
		defer a.Close()

		d, closeInspector, err := describeSchema(ctx, cfg, a.desc, a.db, logger)
		if err != nil {
			logging.PresentFailure("Could not describe the schema", err)
			return errReported
		}
		defer closeInspector()

		title := pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf("Schema (%s)", d.Source)
		pterm.Println(title)
		pterm.Println()
		pterm.Println(d.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
