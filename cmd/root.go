package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the gmailweb application
var rootCmd = &cobra.Command{
	Use:   "gmailweb",
	Short: "Demo web app for the Gmail API behind Google OAuth",
	Long: `gmailweb is a demonstration web application that performs the OAuth 2.0
authorization-code flow against Google and uses the resulting tokens to
call the Gmail API: list recent messages, fetch a single message with
decoded bodies, and send a test email as the authenticated user.`,
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
	rootCmd.SetVersionTemplate(`{{printf "gmailweb version %s\n" .Version}}`)

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
	rootCmd.AddCommand(newVersionCmd())
}
