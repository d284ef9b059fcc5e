// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"sqlagent/cli/internal/config"
	"sqlagent/cli/internal/keychain"

	"github.com/spf13/cobra"
)

// logoutCmd removes stored API keys from the OS keychain.
var logoutCmd = &cobra.Command{
	Use:   "logout [groq|openrouter]",
	Short: "Remove stored API keys",
	Long: `The logout command removes API keys stored by 'sqlagent login' from the OS
keychain. Without an argument every stored key is removed. Keys set in the
environment or a .env file are not affected.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"groq", "openrouter"},
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			provider, ok := config.LookupProvider(args[0])
			if !ok {
				return fmt.Errorf("unknown provider %q (use groq or openrouter)", args[0])
			}
			if err := km.ClearAPIKey(provider.Name); err != nil {
				return err
			}
			fmt.Printf("✅ %s API key removed\n", provider.Name)
			return nil
		}

		if err := km.ClearAll(); err != nil {
			return err
		}
		fmt.Println("✅ All stored API keys have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
