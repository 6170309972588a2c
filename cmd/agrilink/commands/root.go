// Package commands wires the agrilink CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var prettyLogs bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agrilink",
	Short: "AgriLink - farming community backend",
	Long: `AgriLink is the API server for a farming community platform:
a produce marketplace, expert consultations, farming tips, success
stories and a community discussion board.

Configuration comes from environment variables (ADDR, DATABASE_URL,
JWT_SECRET, LOG_LEVEL, UPLOAD_DIR, ...).`,
	Version: "1.0.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "Human-readable console logs instead of JSON")
}
