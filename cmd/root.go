package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "comptest",
	Short: "Test interactive UI components against an in-memory DOM",
	Long: `comptest mounts UI components into an in-memory browser window and
exercises the constructs that are invisible to plain render-and-assert
testing: two-way bound props, imperative directives, slotted content and
ambient runtime modules replaced by deterministic mocks.

Scenarios are defined in YAML and run against registered component
fixtures; results are reported on the console, in a terminal UI, or over
MCP for agent tooling.`,
	// SilenceUsage prevents printing the usage message on errors we
	// already report ourselves (failing suites, bad flags).
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and only needs to happen
// once.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "comptest version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
