package commands

import (
	"github.com/spf13/cobra"

	"github.com/agrilink/agrilink/cmd/agrilink/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	Run: func(cmd *cobra.Command, args []string) {
		output.Info("agrilink %s", rootCmd.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
