package cmd

import (
	"github.com/spf13/cobra"

	"audiofx/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the audiofx HTTP server",
	Long:  `Start the HTTP server exposing upload, separation, effect and download endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
