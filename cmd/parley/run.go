package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Play a dialogue script in the terminal",
	Long: `Plays a script interactively. <script> is a path to a .sud file or a script
name inside the configured scripts directory.

With --session the position is saved after every line and the next run with
the same session resumes where the previous one stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{Script: args[0]}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Label, _ = cmd.Flags().GetString("label")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.Vars, _ = cmd.Flags().GetStringArray("set")
		return cli.RunSession(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("label", "l", "", "Start at this label instead of the beginning")
	runCmd.Flags().StringP("session", "s", "", "Session ID to save to and resume from")
	runCmd.Flags().Bool("fresh", false, "Discard the saved session before starting")
	runCmd.Flags().Bool("plain", false, "Disable colours and markdown rendering")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, strict IO)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().StringArray("set", nil, "Set a variable before starting, as Name=value (repeatable)")
}
