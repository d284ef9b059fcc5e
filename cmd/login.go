// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"sqlagent/cli/internal/config"
	"sqlagent/cli/internal/keychain"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/terminal"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd stores an LLM provider API key in the OS keychain.
var loginCmd = &cobra.Command{
	Use:   "login [groq|openrouter]",
	Short: "Store an LLM provider API key in the OS keychain",
	Long: `The login command prompts for an API key and stores it in the OS keychain
(macOS Keychain, Windows Credential Manager, or the Secret Service / KWallet /
pass / an encrypted file on Linux). Stored keys are used whenever GROQ_API_KEY or
OPENROUTER_API_KEY is not set.

The provider defaults to groq. It is also recorded as the default provider in
config.json, together with --model when given.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"groq", "openrouter"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "groq"
		if len(args) == 1 {
			name = args[0]
		}
		provider, ok := config.LookupProvider(name)
		if !ok {
			return fmt.Errorf("unknown provider %q (use groq or openrouter)", name)
		}

		promptText := fmt.Sprintf("Enter %s API key: ", provider.Name)
		key, err := readSecret(promptText)
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("API key is required")
		}

		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system.")
			fmt.Printf("   Set %s in your environment or .env file instead.\n", provider.KeyEnv)
			return err
		}
		if err := km.SaveAPIKey(provider.Name, key); err != nil {
			fmt.Println("❌ Failed to save the API key securely.")
			return err
		}

		fmt.Printf("✅ %s API key saved to the OS keychain\n", provider.Name)
		if err := config.Remember(provider.Name, loginModel); err != nil {
			fmt.Println(logging.PresentError("   Could not save provider settings", err))
		} else {
			fmt.Printf("   %s is now the default provider\n", provider.Name)
		}
		if os.Getenv(provider.KeyEnv) != "" {
			fmt.Printf("   Note: %s is set and takes precedence over the stored key.\n", provider.KeyEnv)
		}
		return nil
	},
}

var loginModel string

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginModel, "model", "", "Model to use with this provider by default")
}

// readSecret prompts for a value without echoing it when stdin is a terminal.
// The prompt is cleared afterwards.
func readSecret(promptText string) (string, error) {
	fmt.Print(promptText)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		terminal.ClearPreviousLines(len(promptText))
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(line), nil
}
