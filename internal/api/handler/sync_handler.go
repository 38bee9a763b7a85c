package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"sheetsync/internal/mapping"
	"sheetsync/internal/model"
	"sheetsync/internal/schema"
	"sheetsync/internal/sheets"
	"sheetsync/internal/store"
	"sheetsync/internal/syncer"
)

// Handler carries the service dependencies for the sync API.
type Handler struct {
	Sheets       *sheets.Service
	Introspector *schema.Introspector
	Engine       *syncer.Engine
	Store        *store.Store
	Mappings     *mapping.Store
	AuthToken    string
}

func writeJSON(w http.ResponseWriter, status int, body model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.APIResponse{Success: false, Message: message})
}

// ListSheets returns the syncable worksheets of a spreadsheet
// @Summary List syncable worksheets
// @Description Fetch the worksheets of a spreadsheet that match the sync prefix, with columns, row counts and sample rows
// @Tags sync
// @Accept json
// @Produce json
// @Param request body object true "{spreadsheetId}"
// @Success 200 {object} model.APIResponse "Sheet listing"
// @Failure 400 {object} model.APIResponse "Missing spreadsheet ID"
// @Failure 403 {object} model.APIResponse "Spreadsheet not shared"
// @Failure 404 {object} model.APIResponse "Spreadsheet not found"
// @Router /sync/sheets [post]
func (h *Handler) ListSheets(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SpreadsheetID == "" {
		writeError(w, http.StatusBadRequest, "spreadsheetId is required")
		return
	}

	infos, err := h.Sheets.ListSheets(r.Context(), body.SpreadsheetID)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, sheets.ErrPermission):
			status = http.StatusForbidden
		case errors.Is(err, sheets.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, sheets.ErrTimeout):
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, sheets.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"sheets": infos},
	})
}

// TableSchema returns the destination table's column definitions
// @Summary Destination table schema
// @Description Column definitions from live introspection, degrading to the static fallback list when the database lookup fails
// @Tags sync
// @Produce json
// @Param table query string true "Destination table name"
// @Success 200 {object} model.APIResponse "Columns and their source (live or fallback)"
// @Failure 400 {object} model.APIResponse "Missing or invalid table name"
// @Router /sync/schema [get]
func (h *Handler) TableSchema(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table == "" {
		writeError(w, http.StatusBadRequest, "table is required")
		return
	}
	if !schema.ValidIdent(table) {
		writeError(w, http.StatusBadRequest, "invalid table name")
		return
	}

	columns, err := h.Introspector.Columns(r.Context(), table)
	source := schema.SourceLive
	if err != nil || len(columns) == 0 {
		if fb := schema.FallbackColumns(table); len(fb) > 0 {
			columns, source = fb, schema.SourceFallback
		} else {
			writeJSON(w, http.StatusOK, model.APIResponse{
				Success: false,
				Message: "no schema available for table " + table,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"columns": columns, "source": source},
	})
}

func displayName(table string) string {
	words := strings.Split(table, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// AllTables lists the selectable destination tables
// @Summary List destination tables
// @Tags sync
// @Produce json
// @Success 200 {object} model.APIResponse "Table names with display names"
// @Router /sync/all-tables [get]
func (h *Handler) AllTables(w http.ResponseWriter, r *http.Request) {
	names, err := h.Introspector.Tables(r.Context())
	if err != nil {
		// Degrade to the tables we at least have fallback schemas for.
		names = schema.FallbackTables()
	}

	tables := make([]model.TableRef, 0, len(names))
	for _, n := range names {
		tables = append(tables, model.TableRef{Name: n, DisplayName: displayName(n)})
	}
	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"tables": tables},
	})
}

// SuggestMapping suggests a column mapping for a sheet/table pair
// @Summary Suggest a column mapping
// @Description Heuristic match of sheet columns onto destination columns; a saved mapping for the table takes precedence over a fresh computation
// @Tags sync
// @Produce json
// @Param sheetColumns query string true "Comma-separated sheet column headers"
// @Param tableName query string true "Destination table name"
// @Success 200 {object} model.APIResponse "Suggested mapping plus per-column candidates"
// @Failure 400 {object} model.APIResponse "Missing parameters"
// @Router /sync/tables [get]
func (h *Handler) SuggestMapping(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("tableName")
	sheetColumns := r.URL.Query().Get("sheetColumns")
	if table == "" || sheetColumns == "" {
		writeError(w, http.StatusBadRequest, "sheetColumns and tableName are required")
		return
	}

	sourceCols := strings.Split(sheetColumns, ",")
	for i := range sourceCols {
		sourceCols[i] = strings.TrimSpace(sourceCols[i])
	}

	columns, err := h.Introspector.Columns(r.Context(), table)
	if err != nil || len(columns) == 0 {
		columns = schema.FallbackColumns(table)
	}
	destCols := make([]string, 0, len(columns))
	for _, c := range columns {
		destCols = append(destCols, c.Name)
	}

	suggestions := make(map[string][]string, len(destCols))
	for _, dest := range destCols {
		if s := mapping.Suggest(dest, sourceCols); len(s) > 0 {
			suggestions[dest] = s
		}
	}

	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"mapping":     h.Mappings.Resolve(table, destCols, sourceCols),
			"suggestions": suggestions,
		},
	})
}

// SyncHistory returns the last successful sync time for a table
// @Summary Last sync time
// @Tags sync
// @Produce json
// @Param table query string true "Destination table name"
// @Param spreadsheetId query string true "Spreadsheet ID"
// @Success 200 {object} model.APIResponse "lastSyncTime, null when never synced"
// @Router /sync/history [get]
func (h *Handler) SyncHistory(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	spreadsheetID := r.URL.Query().Get("spreadsheetId")
	if table == "" {
		writeError(w, http.StatusBadRequest, "table is required")
		return
	}

	last, err := h.Store.LastSyncTime(table, spreadsheetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read sync history")
		return
	}

	var lastSyncTime interface{}
	if !last.IsZero() {
		lastSyncTime = last.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"lastSyncTime": lastSyncTime},
	})
}

// StreamSync runs a sync and streams progress events
// @Summary Run a sync
// @Description Executes the sync described by the request body and streams newline-delimited JSON events (start, progress, info, warn, error, result). With truncateTable set, every existing row of the target table is deleted first; this is not reversible.
// @Tags sync
// @Accept json
// @Produce application/x-ndjson
// @Param request body model.SyncRequest true "Sync request"
// @Success 200 {string} string "NDJSON event stream"
// @Failure 400 {object} model.APIResponse "Invalid request body"
// @Failure 401 {object} model.APIResponse "Missing or wrong bearer token"
// @Router /sync/flexible/stream [post]
func (h *Handler) StreamSync(w http.ResponseWriter, r *http.Request) {
	if h.AuthToken != "" {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+h.AuthToken {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
	}

	var req model.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid sync request body")
		return
	}
	if req.SheetName == "" || req.TargetTable == "" {
		writeError(w, http.StatusBadRequest, "sheetName and targetTable are required")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)
	emit := func(ev model.SyncEvent) {
		if err := encoder.Encode(ev); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	h.Engine.Run(r.Context(), req, emit)
}

// ListRuns returns recent sync runs
// @Summary Recent sync runs
// @Tags runs
// @Produce json
// @Success 200 {object} model.APIResponse "Run records, newest first"
// @Router /sync/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"runs": runs, "count": len(runs)},
	})
}

// RunLogs returns the stored log of one run
// @Summary Sync run log
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.APIResponse "Tagged log lines in append order"
// @Failure 400 {object} model.APIResponse "Missing run ID"
// @Router /sync/runs/{id}/logs [get]
func (h *Handler) RunLogs(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 {
		writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}
	runID := parts[2]

	logs, err := h.Store.GetLogs(runID, 500)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read run logs")
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"runId": runID, "logs": logs, "count": len(logs)},
	})
}

// Health reports service liveness
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} model.APIResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "ok"})
}
