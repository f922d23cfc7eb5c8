package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/district-cli/internal/validator"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect the validation providers",
}

var providersTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check connectivity to each configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		reports := make([]validator.TestReport, 0, 3)
		for _, name := range env.registry.Names() {
			reports = append(reports, env.registry.Get(name).Test(cmd.Context()))
		}
		return printJSON(reports)
	},
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers and whether each is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		type entry struct {
			Name       string `json:"name"`
			Configured bool   `json:"configured"`
		}
		out := make([]entry, 0, 3)
		for _, name := range env.registry.Names() {
			out = append(out, entry{Name: name, Configured: env.registry.Get(name).IsConfigured()})
		}
		return printJSON(out)
	},
}

func init() {
	providersCmd.AddCommand(providersTestCmd)
	providersCmd.AddCommand(providersListCmd)
	rootCmd.AddCommand(providersCmd)
}
