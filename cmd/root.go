// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for sqlagent.
// Running sqlagent without a subcommand starts the interactive question loop;
// subcommands inspect the connection and schema and manage stored API keys.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/querylog"
	"sqlagent/cli/internal/repl"
	"sqlagent/cli/internal/session"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Banner is printed once the agent is ready.
const Banner = "SQL Agent initialized. Type 'exit' to quit."

var (
	showVersion bool
	flags       runFlags
)

// errReported signals a failure that has already been shown to the user.
var errReported = errors.New("reported")

// rootCmd starts the interactive question loop.
var rootCmd = &cobra.Command{
	Use:   "sqlagent",
	Short: "Ask questions about your SQL database in plain English",
	Long: `sqlagent connects to a PostgreSQL, MySQL, SQL Server, SQLite or DuckDB database
configured through DB_* environment variables (or a .env file) and answers questions
with the help of an LLM agent that writes and runs SQL.

Every answered question is appended to the query log together with the SQL that
produced it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			pterm.Warning.Printfln("Could not read .env: %v", err)
		}
		if flags.verbose {
			os.Setenv("SQLAGENT_VERBOSE", "1")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("sqlagent %s\n", Version)
			return nil
		}

		ctx := cmd.Context()
		a, err := bootstrap(ctx, flags)
		if err != nil {
			logging.PresentFailure("Could not start the SQL agent", err)
			return errReported
		}
		defer a.Close()

		pterm.Println(Banner)
		loop := &repl.Loop{
			In:        os.Stdin,
			Out:       os.Stdout,
			Agent:     a.agent,
			Sessions:  session.NewStore(),
			SessionID: a.cfg.Session,
			Log:       querylog.NewWriter(a.cfg.QueryLog),
			Wait:      spinnerWait("Thinking", a.cfg.Verbose),
		}
		return loop.Run(ctx)
	},
}

// Execute runs the CLI application. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, logging.Mask(err.Error()))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log every agent action to stderr")
	pf.StringVar(&flags.session, "session", "", "Conversation session id (default user_session)")
	pf.StringVar(&flags.logFile, "log-file", "", "Query log file (default query_history.txt)")
	pf.StringVar(&flags.schemaMode, "schema-mode", "", "Schema source: auto, curated or dynamic")
	pf.StringVar(&flags.schemaFile, "schema-file", "", "YAML file with curated schema descriptions")
}
