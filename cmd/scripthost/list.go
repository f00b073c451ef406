package main

import (
	"github.com/aretw0/scripthost/internal/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List the scripts in start order",
	Long:  `Discovers the scripts without running them and prints their start order and the ones that would be excluded.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		return cli.List(cmd.Context(), cmd.OutOrStdout(), cli.ListOptions{
			Options: commonOptions(cmd, args),
			Raw:     raw,
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("raw", false, "Print plain markdown")
}
