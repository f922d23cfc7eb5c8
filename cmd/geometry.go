package main

import (
	"github.com/spf13/cobra"
)

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Manage the district geometry set",
}

var geometryLoadCmd = &cobra.Command{
	Use:   "load [source]",
	Short: "Load district geometry from a shapefile, archive, or URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfg.Geometry.Source
		if len(args) == 1 {
			source = args[0]
		}

		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.store.Load(cmd.Context(), source); err != nil {
			return err
		}
		return printJSON(env.store.Status())
	},
}

var geometryRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-download and reload the configured geometry source",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.store.Load(cmd.Context(), cfg.Geometry.Source); err != nil {
			return err
		}
		return printJSON(env.store.Status())
	},
}

var geometryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the loaded district set and its staleness",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.Close()

		return printJSON(env.status())
	},
}

func init() {
	geometryCmd.AddCommand(geometryLoadCmd)
	geometryCmd.AddCommand(geometryRefreshCmd)
	geometryCmd.AddCommand(geometryStatusCmd)
	rootCmd.AddCommand(geometryCmd)
}
