// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"sqlagent/cli/internal/dsn"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/sqlexec"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// connectCmd verifies that the configured database is reachable.
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Verify the database connection",
	Long: `The connect command resolves the DB_* environment variables, opens a connection,
runs a trivial query and lists the tables the agent will be able to see.

Supported DB_TYPE values: postgres, mysql, mssql, sqlite, duckdb.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		verbose := flags.verbose || logging.VerboseFromEnv(os.Getenv)

		var (
			desc   dsn.ConnectionDescriptor
			db     *sqlexec.DB
			err    error
			tables []string
		)
		runWithSpinner("Verifying connection", verbose, func() {
			desc, db, err = openDatabase(ctx)
			if err != nil {
				return
			}
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err = db.Ping(pingCtx); err != nil {
				return
			}
			tables = db.TableNames()
		})
		if db != nil {
			defer db.Close()
		}
		if err != nil {
			logging.PresentFailure("Connection failed", err)
			return errReported
		}

		pterm.Println("✅ Database connection verified!")
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Connection: ") + pterm.NewStyle(pterm.FgLightBlue).Sprint(maskPassword(desc.URI())))
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Dialect:    ") + db.Dialect())
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Tables:     ") + fmt.Sprint(len(tables)))
		if len(tables) > 0 {
			items := make([]pterm.BulletListItem, 0, len(tables))
			for _, t := range tables {
				items = append(items, pterm.BulletListItem{Level: 0, Text: t})
			}
			_ = pterm.DefaultBulletList.WithItems(items).Render()
		}
		pterm.Println("   You're ready to run 'sqlagent'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
