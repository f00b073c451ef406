package main

import (
	"github.com/aretw0/scripthost/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Host the scripts until interrupted",
	Long: `Loads every script, starts them in dependency order and ticks them at the
configured frame rate. The reload key (Insert by default) restarts everything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		noKeyboard, _ := cmd.Flags().GetBool("no-keyboard")
		return cli.Run(cli.RunOptions{
			Options:    commonOptions(cmd, args),
			Quiet:      quiet,
			NoKeyboard: noKeyboard,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	runCmd.Flags().Bool("no-keyboard", false, "Do not read keys from the terminal")

	// 'run' is the default command.
	rootCmd.Args = runCmd.Args
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
