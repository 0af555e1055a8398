package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of this wasmrepro build",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), reprobuild.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
