package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "sheetsync",
	Short: "Sync spreadsheet data into a database",
	Long: `sheetsync reads worksheets from a shared spreadsheet and loads their
rows into destination database tables, matching sheet columns to table
columns automatically and remembering the mapping for next time.

Run "sheetsync serve" to start the API server, or "sheetsync run" to
execute a single sync against a running server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to an env file (ignored when missing)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
