package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|dir]...",
	Short: "Check scripts for compile errors",
	Long: `Compiles every script given (directories are searched recursively) and
reports diagnostics. Exits non-zero when any script has errors.
Without arguments the configured scripts directory is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			args = []string{cfg.Scripts.Dir}
		}
		return cli.ValidateScripts(args, cfg.Scripts.TabWidth, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
