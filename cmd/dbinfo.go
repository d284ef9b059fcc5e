// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"sqlagent/cli/internal/dsn"
	"sqlagent/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// dbinfoCmd represents the dbinfo command for displaying database connection information.
// It shows the resolved connection URI with the password masked for security.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the configured database connection",
	Long: `The dbinfo command resolves the DB_* environment variables (including a .env file
in the current directory) and displays the resulting connection with the password
masked. It does not connect to the database; use 'sqlagent connect' for that.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := dsn.Resolve(os.Getenv)
		if err != nil {
			logging.PresentFailure("Database is not configured", err)
			return errReported
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(describeConnection(desc))
		pterm.Println()
		pterm.Println("To test this connection, run: sqlagent connect")
		pterm.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}

// describeConnection renders desc for display with the password masked.
func describeConnection(desc dsn.ConnectionDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type:       %s\n", desc.Dialect)
	if desc.Dialect.FileBacked() {
		fmt.Fprintf(&b, "File:       %s\n", desc.Database)
	} else {
		fmt.Fprintf(&b, "Host:       %s:%s\n", desc.Host, desc.Port)
		fmt.Fprintf(&b, "Database:   %s\n", desc.Database)
		fmt.Fprintf(&b, "User:       %s\n", desc.User)
	}
	fmt.Fprintf(&b, "Connection: %s", maskPassword(desc.URI()))
	return b.String()
}

// maskPassword replaces the password in a connection URI with asterisks.
func maskPassword(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return logging.Mask(uri)
	}
	if u.User == nil {
		return uri
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return uri
	}
	return strings.Replace(u.Redacted(), ":xxxxx@", ":***@", 1)
}
