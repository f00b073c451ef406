package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scripthost/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scripthost",
	Short: "scripthost runs dependency-ordered scripts on a frame loop",
	Long: `scripthost loads Lua scripts, process manifests and compiled-in modules from a
directory, starts them in dependency order and ticks them every frame.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "scripthost.yaml", "Settings file")
	rootCmd.PersistentFlags().String("dir", "", "Scripts directory (overrides scripts_location)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// commonOptions reads the persistent flags. A positional argument is taken
// as the scripts directory when --dir is absent.
func commonOptions(cmd *cobra.Command, args []string) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{ConfigPath: configPath, ScriptsDir: dir, Debug: debug}
}
