package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var validateMethods []string

var validateCmd = &cobra.Command{
	Use:   "validate <address>",
	Short: "Validate an address across providers and compare results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.Close()

		methods := validateMethods
		if len(methods) == 0 {
			methods = cfg.Validate.Methods
		}

		resp, err := env.orchestrator.Validate(cmd.Context(), strings.Join(args, " "), methods)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateMethods, "methods", nil, "validation methods to run (default from config)")
	rootCmd.AddCommand(validateCmd)
}
