package model

import "time"

// SheetInfo describes one worksheet of the source spreadsheet: its header
// columns, total row count and a bounded sample of rows. A per-sheet fetch
// failure is carried in Error so one malformed sheet never aborts the batch.
type SheetInfo struct {
	Name       string                   `json:"name"`
	RowCount   int                      `json:"rowCount"`
	Columns    []string                 `json:"columns"`
	SampleData []map[string]interface{} `json:"sampleData,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// ColumnInfo describes one destination-table column, sourced from live
// schema introspection or a static fallback list.
type ColumnInfo struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default"`
}

// ColumnMapping maps a source-sheet column name to a destination column
// name. A destination column must appear as a value at most once; use
// mapping.Assign to keep that invariant when mutating.
type ColumnMapping map[string]string

// SyncRequest is the immutable description of one sync invocation.
type SyncRequest struct {
	SpreadsheetID         string        `json:"spreadsheetId"`
	SheetName             string        `json:"sheetName"`
	TargetTable           string        `json:"targetTable"`
	ColumnMapping         ColumnMapping `json:"columnMapping"`
	TruncateTable         bool          `json:"truncateTable"`
	EnableIncrementalSync bool          `json:"enableIncrementalSync"`
}

// EventType enumerates the sync event kinds carried on the NDJSON stream.
type EventType string

const (
	EventStart    EventType = "start"
	EventProgress EventType = "progress"
	EventInfo     EventType = "info"
	EventWarn     EventType = "warn"
	EventError    EventType = "error"
	EventResult   EventType = "result"
)

// SyncDetails carries the final row counts of a finished run.
type SyncDetails struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

// SyncEvent is a tagged variant; only a subset of fields is set depending
// on Type. Events are delivered in emission order over a single stream per
// run and never replayed or reordered.
type SyncEvent struct {
	Type EventType `json:"type"`

	// start / progress
	Total     int `json:"total,omitempty"`
	Processed int `json:"processed,omitempty"`
	Inserted  int `json:"inserted,omitempty"`
	Updated   int `json:"updated,omitempty"`
	Errors    int `json:"errors,omitempty"`

	// info / warn / error / result
	Message string `json:"message,omitempty"`

	// result
	Success bool         `json:"success,omitempty"`
	Details *SyncDetails `json:"details,omitempty"`
}

// TableRef is one selectable destination table.
type TableRef struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// SyncRun is the stored record of one sync invocation.
type SyncRun struct {
	ID            string     `json:"id"`
	SpreadsheetID string     `json:"spreadsheetId"`
	SheetName     string     `json:"sheetName"`
	TargetTable   string     `json:"targetTable"`
	Status        string     `json:"status"` // running, completed, failed
	Processed     int        `json:"processed"`
	Inserted      int        `json:"inserted"`
	Updated       int        `json:"updated"`
	Errors        int        `json:"errors"`
	Message       string     `json:"message,omitempty"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}

// APIResponse is the JSON envelope every non-streaming endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
