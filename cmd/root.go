package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the levermcp application.
var rootCmd = &cobra.Command{
	Use:   "levermcp",
	Short: "MCP server for Lever recruiting and delegated Gmail sending",
	Long: `levermcp exposes Lever candidate and requisition operations and
themed Gmail sending as MCP tools. Gmail access is delegated: the caller
either supplies an OAuth access token or is guided through a
browser-based authorization flow with server-side code polling.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main to
// inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "levermcp version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
