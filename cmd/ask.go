package cmd

import (
	"os"
	"strings"

	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/querylog"
	"sqlagent/cli/internal/repl"
	"sqlagent/cli/internal/session"

	"github.com/spf13/cobra"
)

// askCmd answers a single question and exits.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Long: `The ask command runs a single agent turn for the question given on the command
line, prints the generated SQL and the answer, and appends them to the query log.
It exits with status 1 when the turn fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx, flags)
		if err != nil {
			logging.PresentFailure("Could not start the SQL agent", err)
			return errReported
		}
		defer a.Close()

		loop := &repl.Loop{
			Out:       os.Stdout,
			Agent:     a.agent,
			Sessions:  session.NewStore(),
			SessionID: a.cfg.Session,
			Log:       querylog.NewWriter(a.cfg.QueryLog),
			Wait:      spinnerWait("Thinking", a.cfg.Verbose),
		}
		if _, failed := loop.Turn(ctx, strings.Join(args, " ")).(repl.Failed); failed {
			return errReported
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
