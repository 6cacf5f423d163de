package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the zara application
var rootCmd = &cobra.Command{
	Use:   "zara",
	Short: "Chat assistant that schedules meetings on a Google Calendar",
	Long: `zara is a chat-driven scheduling assistant. It serves a WebSocket
endpoint, holds a conversation through a hosted language model, and checks
availability or books 30-minute slots on the owner's Google Calendar.

Run "zara auth" once to complete the Google OAuth consent flow before
starting the server.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "zara version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
