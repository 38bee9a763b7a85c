package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sheetsync/internal/model"
	"sheetsync/internal/schema"
	"sheetsync/internal/store"
)

// RowSource supplies the rows of one worksheet.
type RowSource interface {
	Rows(ctx context.Context, spreadsheetID, sheetName string) (columns []string, rows []map[string]interface{}, err error)
}

// Engine executes sync requests against the destination database, emitting
// the event stream as it goes. Writes are row-by-row and at-least-once: a
// failure mid-run leaves the table partially synced, reported but never
// rolled back.
type Engine struct {
	DB        *sql.DB
	Driver    string
	Source    RowSource
	Store     *store.Store
	BatchSize int

	mu     sync.Mutex
	active map[string]bool // tables with a run in flight
}

func NewEngine(db *sql.DB, driver string, source RowSource, st *store.Store, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Engine{
		DB:        db,
		Driver:    driver,
		Source:    source,
		Store:     st,
		BatchSize: batchSize,
		active:    make(map[string]bool),
	}
}

func (e *Engine) acquire(table string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active[table] {
		return false
	}
	e.active[table] = true
	return true
}

func (e *Engine) release(table string) {
	e.mu.Lock()
	delete(e.active, table)
	e.mu.Unlock()
}

// timestampLayouts accepted when filtering rows for incremental sync.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseRowTime(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timestampSource finds the source column mapped onto updated_at or
// created_at, the marker incremental sync filters on.
func timestampSource(mapping model.ColumnMapping) string {
	for _, dest := range []string{"updated_at", "created_at"} {
		for src, d := range mapping {
			if d == dest {
				return src
			}
		}
	}
	return ""
}

// Run executes one sync request, emitting start/progress/info/warn/error
// events and always a terminal result event. Event emission order is the
// only delivery guarantee.
func (e *Engine) Run(ctx context.Context, req model.SyncRequest, emit func(model.SyncEvent)) {
	fail := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		emit(model.SyncEvent{Type: model.EventError, Message: msg})
		emit(model.SyncEvent{Type: model.EventResult, Success: false, Message: msg})
	}

	if !schema.ValidIdent(req.TargetTable) {
		fail("invalid target table %q", req.TargetTable)
		return
	}
	if len(req.ColumnMapping) == 0 {
		fail("column mapping is empty")
		return
	}
	for src, dest := range req.ColumnMapping {
		if !schema.ValidIdent(dest) {
			fail("invalid destination column %q (mapped from %q)", dest, src)
			return
		}
	}
	if !e.acquire(req.TargetTable) {
		fail("a sync for table %s is already running", req.TargetTable)
		return
	}
	defer e.release(req.TargetTable)

	runID := uuid.New().String()
	startedAt := time.Now()
	if e.Store != nil {
		_ = e.Store.CreateRun(model.SyncRun{
			ID:            runID,
			SpreadsheetID: req.SpreadsheetID,
			SheetName:     req.SheetName,
			TargetTable:   req.TargetTable,
			Status:        "running",
			StartedAt:     startedAt,
		})
	}

	logged := func(ev model.SyncEvent) {
		if e.Store != nil && ev.Message != "" {
			_ = e.Store.AppendLog(runID, strings.ToUpper(string(ev.Type)), ev.Message)
		}
		emit(ev)
	}

	logged(model.SyncEvent{Type: model.EventInfo,
		Message: fmt.Sprintf("sync %s: sheet %q -> table %s", runID, req.SheetName, req.TargetTable)})

	columns, rows, err := e.Source.Rows(ctx, req.SpreadsheetID, req.SheetName)
	if err != nil {
		e.finish(runID, req, model.SyncDetails{}, 0, startedAt, false, err.Error())
		fail("failed to read sheet %s: %v", req.SheetName, err)
		return
	}

	// Only mapping entries whose source column actually exists in the
	// sheet participate; the rest are reported, not fatal.
	srcSet := make(map[string]bool, len(columns))
	for _, c := range columns {
		srcSet[c] = true
	}
	mapping := make(model.ColumnMapping)
	for src, dest := range req.ColumnMapping {
		if srcSet[src] {
			mapping[src] = dest
		} else {
			logged(model.SyncEvent{Type: model.EventWarn,
				Message: fmt.Sprintf("mapped column %q not present in sheet, skipped", src)})
		}
	}
	if len(mapping) == 0 {
		msg := "no mapped columns present in sheet"
		e.finish(runID, req, model.SyncDetails{}, 0, startedAt, false, msg)
		fail("%s", msg)
		return
	}

	if req.EnableIncrementalSync {
		// Truncating deletes every existing row, so filtering out rows
		// older than the last sync would lose them for good.
		if req.TruncateTable {
			logged(model.SyncEvent{Type: model.EventWarn,
				Message: "incremental sync ignored: truncate requires a full load"})
		} else if e.Store != nil {
			rows = e.filterIncremental(req, mapping, rows, logged)
		}
	}

	if req.TruncateTable {
		// Documented, user-opted-in destructive step: every existing row
		// in the target table goes away before inserts begin.
		if _, err := e.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM `%s`", req.TargetTable)); err != nil {
			e.finish(runID, req, model.SyncDetails{}, 0, startedAt, false, err.Error())
			fail("failed to truncate %s: %v", req.TargetTable, err)
			return
		}
		logged(model.SyncEvent{Type: model.EventWarn,
			Message: fmt.Sprintf("table %s truncated before sync", req.TargetTable)})
	}

	total := len(rows)
	logged(model.SyncEvent{Type: model.EventStart, Total: total})

	var details model.SyncDetails
	processed := 0
	writer := newRowWriter(e.DB, e.Driver, req.TargetTable, mapping)

	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		updated, err := writer.write(ctx, row)
		processed++
		switch {
		case err != nil:
			details.Errors++
			logged(model.SyncEvent{Type: model.EventWarn,
				Message: fmt.Sprintf("row %d failed: %v", processed, err)})
		case updated:
			details.Updated++
		default:
			details.Inserted++
		}

		if processed%e.BatchSize == 0 || processed == total {
			emit(model.SyncEvent{
				Type:      model.EventProgress,
				Processed: processed,
				Total:     total,
				Inserted:  details.Inserted,
				Updated:   details.Updated,
				Errors:    details.Errors,
			})
		}
	}

	if ctx.Err() != nil {
		msg := "sync aborted: " + ctx.Err().Error()
		e.finish(runID, req, details, processed, startedAt, false, msg)
		fail("%s", msg)
		return
	}

	msg := fmt.Sprintf("synced %d rows into %s (%d inserted, %d updated, %d errors)",
		processed, req.TargetTable, details.Inserted, details.Updated, details.Errors)
	e.finish(runID, req, details, processed, startedAt, true, msg)
	logged(model.SyncEvent{Type: model.EventResult, Success: true, Message: msg, Details: &details})
}

func (e *Engine) filterIncremental(req model.SyncRequest, mapping model.ColumnMapping,
	rows []map[string]interface{}, logged func(model.SyncEvent)) []map[string]interface{} {

	lastSync, err := e.Store.LastSyncTime(req.TargetTable, req.SpreadsheetID)
	if err != nil || lastSync.IsZero() {
		return rows
	}

	tsCol := timestampSource(mapping)
	if tsCol == "" {
		logged(model.SyncEvent{Type: model.EventWarn,
			Message: "incremental sync requested but no timestamp column mapped, running full sync"})
		return rows
	}

	filtered := rows[:0:0]
	for _, row := range rows {
		if t, ok := parseRowTime(row[tsCol]); ok && !t.After(lastSync) {
			continue
		}
		// Unparseable timestamps are kept: better re-written than lost.
		filtered = append(filtered, row)
	}
	logged(model.SyncEvent{Type: model.EventInfo,
		Message: fmt.Sprintf("incremental sync: %d of %d rows changed since %s",
			len(filtered), len(rows), lastSync.Format(time.RFC3339))})
	return filtered
}

func (e *Engine) finish(runID string, req model.SyncRequest, details model.SyncDetails,
	processed int, startedAt time.Time, success bool, msg string) {

	if e.Store == nil {
		return
	}
	status := "failed"
	if success {
		status = "completed"
		_ = e.Store.SetLastSyncTime(req.TargetTable, req.SpreadsheetID, time.Now().UTC())
	}
	finishedAt := time.Now()
	_ = e.Store.FinishRun(model.SyncRun{
		ID:         runID,
		Status:     status,
		Processed:  processed,
		Inserted:   details.Inserted,
		Updated:    details.Updated,
		Errors:     details.Errors,
		Message:    msg,
		FinishedAt: &finishedAt,
	})
}

// rowWriter writes mapped rows one at a time. When the mapping covers an
// id column, existing rows are updated in place and counted as updates;
// everything else is a plain insert.
type rowWriter struct {
	db      *sql.DB
	table   string
	sources []string // ordered source columns
	dests   []string // matching destination columns
	pkSrc   string   // source column mapped onto id, or ""
}

func newRowWriter(db *sql.DB, driver, table string, mapping model.ColumnMapping) *rowWriter {
	w := &rowWriter{db: db, table: table}

	sources := make([]string, 0, len(mapping))
	for src := range mapping {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		w.sources = append(w.sources, src)
		w.dests = append(w.dests, mapping[src])
		if mapping[src] == "id" {
			w.pkSrc = src
		}
	}
	return w
}

func (w *rowWriter) write(ctx context.Context, row map[string]interface{}) (updated bool, err error) {
	values := make([]interface{}, len(w.sources))
	for i, src := range w.sources {
		values[i] = row[src]
	}

	if w.pkSrc != "" {
		pk := row[w.pkSrc]
		if pk != nil && pk != "" {
			var exists int
			err := w.db.QueryRowContext(ctx,
				fmt.Sprintf("SELECT COUNT(*) FROM `%s` WHERE `id` = ?", w.table), pk).Scan(&exists)
			if err != nil {
				return false, err
			}
			if exists > 0 {
				return true, w.update(ctx, values, pk)
			}
		}
	}
	return false, w.insert(ctx, values)
}

func (w *rowWriter) insert(ctx context.Context, values []interface{}) error {
	cols := make([]string, len(w.dests))
	marks := make([]string, len(w.dests))
	for i, d := range w.dests {
		cols[i] = "`" + d + "`"
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		w.table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	_, err := w.db.ExecContext(ctx, query, values...)
	return err
}

func (w *rowWriter) update(ctx context.Context, values []interface{}, pk interface{}) error {
	var sets []string
	var args []interface{}
	for i, d := range w.dests {
		if d == "id" {
			continue
		}
		sets = append(sets, "`"+d+"` = ?")
		args = append(args, values[i])
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, pk)
	query := fmt.Sprintf("UPDATE `%s` SET %s WHERE `id` = ?", w.table, strings.Join(sets, ", "))
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}
