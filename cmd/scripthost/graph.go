package main

import (
	"github.com/aretw0/scripthost/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the dependency graph",
	Long:  `Inspects the scripts directory and outputs a Mermaid diagram (graph TD) of script dependencies.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Graph(cmd.Context(), cmd.OutOrStdout(), commonOptions(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
