package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"sheetsync/internal/api/handler"
	"sheetsync/pkg/router"

	_ "sheetsync/docs"
)

// RegisterRoutes mounts the sync API on r.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/sync/sheets", h.ListSheets)
	r.GET("/sync/schema", h.TableSchema)
	r.GET("/sync/all-tables", h.AllTables)
	r.GET("/sync/tables", h.SuggestMapping)
	r.GET("/sync/history", h.SyncHistory)
	r.POST("/sync/flexible/stream", h.StreamSync)

	r.GET("/sync/runs", h.ListRuns)
	r.GET("/sync/runs/*/logs", h.RunLogs)

	r.GET("/health", h.Health)

	r.Handle("/swagger/", httpSwagger.WrapHandler)
}
