package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <script>",
	Short: "Export the script graph as a Mermaid diagram",
	Long: `Compiles a script and outputs a Mermaid flowchart (graph TD) of its nodes.
With --session the saved position and taken choices are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.GraphOptions{Script: args[0]}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		return cli.RenderGraph(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the state of this session")
}
