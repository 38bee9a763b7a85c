package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"sheetsync/internal/api"
	"sheetsync/internal/api/handler"
	"sheetsync/internal/config"
	"sheetsync/internal/mapping"
	"sheetsync/internal/scheduler"
	"sheetsync/internal/schema"
	"sheetsync/internal/sheets"
	"sheetsync/internal/store"
	"sheetsync/internal/syncer"
	"sheetsync/pkg/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}

		db, err := config.OpenDestination(cfg)
		if err != nil {
			return fmt.Errorf("opening destination database: %w", err)
		}
		defer db.Close()

		meta, err := store.Open(cfg.DB.StorePath)
		if err != nil {
			return fmt.Errorf("opening local store: %w", err)
		}
		defer meta.Close()

		mappings, err := mapping.NewStore(filepath.Join(cfg.Sync.StateDir, "mappings"))
		if err != nil {
			return fmt.Errorf("opening mapping store: %w", err)
		}
		if err := mappings.Watch(); err != nil {
			log.Printf("mapping store: watch unavailable: %v", err)
		}
		defer mappings.Close()

		svc := sheets.NewService(cfg.Sheets.BaseURL, cfg.Sheets.SheetPrefix, cfg.Sheets.SampleRows, cfg.Sheets.FetchTimeout)
		engine := syncer.NewEngine(db, cfg.DB.Driver, svc, meta, cfg.Sync.BatchSize)

		h := &handler.Handler{
			Sheets:       svc,
			Introspector: &schema.Introspector{DB: db, Driver: cfg.DB.Driver},
			Engine:       engine,
			Store:        meta,
			Mappings:     mappings,
			AuthToken:    cfg.Server.AuthToken,
		}

		r := router.New()
		api.RegisterRoutes(r, h)

		if cfg.Sync.AutoSync {
			sched := scheduler.New(engine, svc, mappings, cfg.Sync.SpreadsheetID, cfg.Sync.Schedule)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- r.Start(":" + cfg.Server.Port)
		}()
		log.Printf("sheetsync listening on :%s", cfg.Server.Port)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			log.Println("shutting down")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
