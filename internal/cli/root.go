package cli

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath, port string

	cmd := &cobra.Command{
		Use:   "pdf-quiz",
		Short: "Generate multiple-choice quizzes from PDF documents with an LLM",
		Long: `pdf-quiz serves a page and a JSON/WebSocket API that turn an uploaded PDF
into a multiple-choice quiz and score the answers. Configuration is read
from --config (or CONFIG_PATH), then .env and environment overrides.`,
		SilenceUsage: true,
	}

	configDefault := defaultConfigPath
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		configDefault = env
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", configDefault, "path to YAML config")
	cmd.PersistentFlags().StringVar(&port, "port", "", "port to listen on (overrides config and PORT)")

	cmd.AddCommand(
		NewStartCmd(&configPath, &port),
		NewMigrateCmd(&configPath),
		NewGenerateCmd(&configPath),
	)
	return cmd
}
