package cmd

import (
	"fmt"
	"os"

	"sqlagent/cli/internal/config"
	"sqlagent/cli/internal/keychain"
	"sqlagent/cli/internal/logging"

	"github.com/spf13/cobra"
)

// whoamiCmd shows which LLM provider, model and key the agent would use.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active LLM provider and where its key comes from",
	Long: `The whoami command reports the LLM provider and model the agent will use and
whether the API key comes from the environment, the OS keychain, or is missing.
The key itself is never printed in full.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(os.Getenv)
		if err != nil {
			logging.PresentFailure("Invalid configuration", err)
			return errReported
		}

		source := "environment"
		provider, _, _, key := cfg.LLM()
		if key == "" {
			source = "OS keychain"
			if km, err := keychain.GetManager(); err == nil {
				cfg.FillFromKeychain(km.LoadAPIKey)
			}
			provider, _, _, key = cfg.LLM()
		}
		_, model, baseURL, _ := cfg.LLM()

		fmt.Printf("🤖 Provider: %s\n", provider.Name)
		fmt.Printf("   Model:    %s\n", model)
		fmt.Printf("   Endpoint: %s\n", baseURL)
		if key == "" {
			fmt.Printf("🔒 No API key found. Set %s or run 'sqlagent login %s'.\n", provider.KeyEnv, provider.Name)
			return nil
		}
		fmt.Printf("🔑 Key:      %s (from %s)\n", redactKey(key), source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

// redactKey keeps a short prefix so users can tell keys apart.
func redactKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:6] + "***"
}
