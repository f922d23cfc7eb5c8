package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/district-cli/internal/orchestrator"
)

var resolveMaxRetries int

var resolveCmd = &cobra.Command{
	Use:   "resolve <address>",
	Short: "Standardize an address to ZIP+4, correcting rejections via the oracle",
	Long:  "Runs the USPS standardization loop: each rejection is sent to the correction oracle, whose suggested variant is retried until a ZIP+4 comes back or the retry budget is spent. The full attempt log is printed.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := orchestrator.ParseAddress(strings.Join(args, " "))
		if err != nil {
			return err
		}

		if resolveMaxRetries > 0 {
			cfg.Engine.MaxRetries = resolveMaxRetries
		}

		env, err := initEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.Close()

		return printJSON(env.engine.Resolve(cmd.Context(), addr))
	},
}

func init() {
	resolveCmd.Flags().IntVar(&resolveMaxRetries, "max-retries", 0, "correction attempts after the initial try (default from config)")
	rootCmd.AddCommand(resolveCmd)
}
