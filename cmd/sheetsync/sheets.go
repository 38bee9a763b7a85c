package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sheetsync/internal/sheets"
	"sheetsync/pkg/utils"
)

var (
	sheetsServer      string
	sheetsSpreadsheet string
	sheetsTimeout     string
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the syncable worksheets of a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sheetsSpreadsheet == "" {
			return fmt.Errorf("--spreadsheet is required")
		}

		timeout := utils.ParseDuration(sheetsTimeout, sheets.DefaultTimeout)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		client := sheets.NewClient(sheetsServer)
		infos, err := client.ListSheets(ctx, sheetsSpreadsheet)
		if err != nil {
			return fmt.Errorf("%s", sheets.UserMessage(err))
		}

		if len(infos) == 0 {
			fmt.Println("No syncable sheets found.")
			return nil
		}

		for _, info := range infos {
			if info.Error != "" {
				fmt.Printf("%-30s (skipped: %s)\n", info.Name, info.Error)
				continue
			}
			fmt.Printf("%-30s %5d rows  [%s]\n", info.Name, info.RowCount, strings.Join(info.Columns, ", "))
		}
		return nil
	},
}

func init() {
	sheetsCmd.Flags().StringVar(&sheetsServer, "server", "http://localhost:8080", "sync server base URL")
	sheetsCmd.Flags().StringVar(&sheetsSpreadsheet, "spreadsheet", "", "spreadsheet ID")
	sheetsCmd.Flags().StringVar(&sheetsTimeout, "timeout", "", "request timeout, e.g. 35s (default "+sheets.DefaultTimeout.String()+")")
	rootCmd.AddCommand(sheetsCmd)
}
