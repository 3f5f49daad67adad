package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the netatmo-mcp application
var rootCmd = &cobra.Command{
	Use:   "netatmo-mcp",
	Short: "MCP server for Netatmo weather stations",
	Long: `netatmo-mcp exposes the readings of your Netatmo weather stations to AI
assistants through the Model Context Protocol (MCP).

It connects to the Netatmo API with OAuth2, keeps the tokens on disk and
refreshes them when they expire. Visit /netatmo/auth once to connect your account.`,
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
	rootCmd.SetVersionTemplate(`{{printf "netatmo-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, start the server
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
	rootCmd.AddCommand(newAuthURLCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
