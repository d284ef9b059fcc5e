// Package main is the entry point for the sqlagent CLI.
// It answers natural-language questions about a SQL database.
package main

import (
	"sqlagent/cli/cmd"
)

func main() {
	cmd.Execute()
}
