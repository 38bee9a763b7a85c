package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sheetsync/internal/config"
	"sheetsync/internal/mapping"
	"sheetsync/internal/model"
	"sheetsync/internal/progress"
	"sheetsync/internal/store"
	"sheetsync/internal/syncer"
)

var (
	runServer      string
	runToken       string
	runSpreadsheet string
	runSheet       string
	runTable       string
	runTruncate    bool
	runIncremental bool
	runMapPairs    []string
	runRows        int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one sync against a running server",
	Long: `Run posts a sync request to the streaming endpoint and follows the
event stream to completion, showing progress as it goes.

The column mapping comes from --map flags (sheetColumn=tableColumn,
repeatable) or, when none are given, from the mapping saved for the
table by a previous sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runSpreadsheet == "" || runSheet == "" || runTable == "" {
			return fmt.Errorf("--spreadsheet, --sheet and --table are required")
		}

		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if runToken == "" {
			runToken = cfg.Server.AuthToken
		}

		colMap, err := resolveRunMapping(cfg, runTable)
		if err != nil {
			return err
		}

		meta, err := store.Open(cfg.DB.StorePath)
		if err != nil {
			return fmt.Errorf("opening local store: %w", err)
		}
		defer meta.Close()

		rate := meta.LearnedRate(progress.DefaultMsPerRow)
		est := progress.NewEstimator(runRows, rate)
		pres := progress.NewPresenter()
		client := syncer.NewClient(runServer, runToken)

		req := model.SyncRequest{
			SpreadsheetID:         runSpreadsheet,
			SheetName:             runSheet,
			TargetTable:           runTable,
			ColumnMapping:         colMap,
			TruncateTable:         runTruncate,
			EnableIncrementalSync: runIncremental,
		}

		start := time.Now()
		est.Begin(start)

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(progress.TickInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case now := <-ticker.C:
					pres.Advance(est.TimerPercent(now))
					fmt.Printf("\r%3.0f%%", pres.Percent())
				}
			}
		}()

		runErr := client.Run(context.Background(), req, func(ev model.SyncEvent) {
			pres.Handle(ev)
			switch ev.Type {
			case model.EventStart:
				est.ObserveStart(ev.Total)
			case model.EventProgress:
				est.ObserveProgress(ev.Processed, ev.Total)
			case model.EventWarn, model.EventError:
				fmt.Printf("\r%s\n", ev.Message)
			}
		})
		close(done)
		duration := time.Since(start)

		processed, details := pres.Counts()
		fmt.Printf("\r%3.0f%%\n", pres.Percent())
		fmt.Printf("%d rows processed in %s (%d inserted, %d updated, %d errors)\n",
			processed, duration.Round(time.Millisecond), details.Inserted, details.Updated, details.Errors)

		if runErr == nil {
			if err := meta.SetLearnedRate(est.LearnRate(duration, details.Inserted, details.Updated)); err != nil {
				log.Printf("saving learned rate: %v", err)
			}
		}

		if path, err := pres.ExportFile(cfg.Sync.StateDir); err != nil {
			log.Printf("exporting run log: %v", err)
		} else {
			fmt.Printf("run log written to %s\n", path)
		}

		return runErr
	},
}

// resolveRunMapping builds the column mapping from --map flags, falling
// back to the mapping saved for the table.
func resolveRunMapping(cfg *config.AppConfig, table string) (model.ColumnMapping, error) {
	if len(runMapPairs) > 0 {
		m := model.ColumnMapping{}
		for _, pair := range runMapPairs {
			src, dest, ok := strings.Cut(pair, "=")
			if !ok || src == "" || dest == "" {
				return nil, fmt.Errorf("bad --map value %q (want sheetColumn=tableColumn)", pair)
			}
			mapping.Assign(m, src, dest)
		}
		return m, nil
	}

	ms, err := mapping.NewStore(filepath.Join(cfg.Sync.StateDir, "mappings"))
	if err != nil {
		return nil, err
	}
	defer ms.Close()

	m, ok := ms.Load(table)
	if !ok || len(m) == 0 {
		return nil, fmt.Errorf("no saved mapping for table %s; pass --map flags", table)
	}
	return m, nil
}

func init() {
	runCmd.Flags().StringVar(&runServer, "server", "http://localhost:8080", "sync server base URL")
	runCmd.Flags().StringVar(&runToken, "token", "", "bearer token (defaults to SERVER_AUTH_TOKEN)")
	runCmd.Flags().StringVar(&runSpreadsheet, "spreadsheet", "", "spreadsheet ID")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "worksheet name")
	runCmd.Flags().StringVar(&runTable, "table", "", "destination table")
	runCmd.Flags().BoolVar(&runTruncate, "truncate", false, "delete existing rows before loading")
	runCmd.Flags().BoolVar(&runIncremental, "incremental", false, "only load rows changed since the last sync")
	runCmd.Flags().StringSliceVar(&runMapPairs, "map", nil, "column mapping as sheetColumn=tableColumn")
	runCmd.Flags().IntVar(&runRows, "rows", progress.DefaultRowEstimate, "estimated row count for the initial ETA")
	rootCmd.AddCommand(runCmd)
}
