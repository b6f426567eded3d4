package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints the version set by main via SetVersion.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of comptest",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("comptest version %s\n", rootCmd.Version)
		},
	}
}
