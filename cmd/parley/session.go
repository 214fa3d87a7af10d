package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/config"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved sessions",
	Long: `List, inspect, and remove sessions held by the configured store.
The memory store does not outlive a process, so it is read as the file store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := sessionConfig(cmd)
		if err != nil {
			return err
		}
		ids, err := cli.ListSessions(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No saved sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Saved Sessions:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := sessionConfig(cmd)
		if err != nil {
			return err
		}
		s, err := cli.InspectSession(cmd.Context(), cfg, args[0])
		if err != nil {
			return fmt.Errorf("loading session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := sessionConfig(cmd)
		if err != nil {
			return err
		}
		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = cli.ListSessions(cmd.Context(), cfg); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		return cli.RemoveSessions(cmd.Context(), cfg, args, func(id string, err error) {
			if err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
				return
			}
			fmt.Fprintf(out, "Removed session '%s'\n", id)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every saved session")
}

func sessionConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Driver == "" || cfg.Store.Driver == "memory" {
		cfg.Store.Driver = "file"
	}
	return cfg, nil
}
