package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the scripts directory over a JSON API with websocket streams per
session and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ServeOptions{Out: cmd.OutOrStdout()}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Addr, _ = cmd.Flags().GetString("addr")
		return cli.Serve(opts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from server.addr)")
}
