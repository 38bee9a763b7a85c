package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sheetsync/internal/mapping"
	"sheetsync/internal/schema"
)

var (
	schemaServer string
	schemaTable  string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show a destination table's columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaTable == "" {
			return fmt.Errorf("--table is required")
		}

		inspector := schema.NewInspector(schemaServer)
		columns, source := inspector.TableColumns(context.Background(), schemaTable)
		if source == schema.SourceNone {
			return fmt.Errorf("table %s is unknown", schemaTable)
		}

		fmt.Printf("%s (%s)\n", schemaTable, source)
		for _, col := range columns {
			nullable := "not null"
			if col.Nullable {
				nullable = "nullable"
			}
			fmt.Printf("  %-20s %-12s %s\n", col.Name, col.Type, nullable)
		}
		return nil
	},
}

var (
	suggestServer  string
	suggestTable   string
	suggestColumns string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest a sheet-to-table column mapping",
	Long: `Suggest matches the given sheet columns against the destination
table's columns and prints the mapping it would apply, plus the
alternatives it considered for each table column.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if suggestTable == "" || suggestColumns == "" {
			return fmt.Errorf("--table and --columns are required")
		}

		var sourceCols []string
		for _, c := range strings.Split(suggestColumns, ",") {
			if c = strings.TrimSpace(c); c != "" {
				sourceCols = append(sourceCols, c)
			}
		}

		inspector := schema.NewInspector(suggestServer)
		columns, source := inspector.TableColumns(context.Background(), suggestTable)
		if source == schema.SourceNone {
			return fmt.Errorf("table %s is unknown", suggestTable)
		}

		destCols := make([]string, len(columns))
		for i, col := range columns {
			destCols[i] = col.Name
		}

		resolved := mapping.ResolveUnique(destCols, sourceCols)
		bySource := map[string]string{}
		for src, dest := range resolved {
			bySource[dest] = src
		}

		for _, dest := range destCols {
			candidates := mapping.Suggest(dest, sourceCols)
			chosen := bySource[dest]
			switch {
			case chosen != "":
				fmt.Printf("  %-20s <- %s\n", dest, chosen)
			case len(candidates) > 0:
				fmt.Printf("  %-20s    (candidates: %s)\n", dest, strings.Join(candidates, ", "))
			default:
				fmt.Printf("  %-20s    (no match)\n", dest)
			}
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaServer, "server", "http://localhost:8080", "sync server base URL")
	schemaCmd.Flags().StringVar(&schemaTable, "table", "", "destination table")
	rootCmd.AddCommand(schemaCmd)

	suggestCmd.Flags().StringVar(&suggestServer, "server", "http://localhost:8080", "sync server base URL")
	suggestCmd.Flags().StringVar(&suggestTable, "table", "", "destination table")
	suggestCmd.Flags().StringVar(&suggestColumns, "columns", "", "comma-separated sheet column names")
	rootCmd.AddCommand(suggestCmd)
}
