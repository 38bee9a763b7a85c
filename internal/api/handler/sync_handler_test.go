package handler_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sheetsync/internal/api"
	"sheetsync/internal/api/handler"
	"sheetsync/internal/mapping"
	"sheetsync/internal/model"
	"sheetsync/internal/schema"
	"sheetsync/internal/sheets"
	"sheetsync/internal/store"
	"sheetsync/internal/syncer"
	"sheetsync/pkg/router"
)

type fixture struct {
	api  *httptest.Server
	db   *sql.DB
	meta *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sheets": []map[string]interface{}{
				{
					"name": "S_Reservations",
					"values": [][]interface{}{
						{"예약번호", "고객명"},
						{"R-001", "김철수"},
						{"R-002", "이영희"},
					},
				},
				{"name": "Notes", "values": [][]interface{}{{"text"}}},
			},
		})
	}))
	t.Cleanup(upstream.Close)

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "dest.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(`CREATE TABLE reservations (id TEXT PRIMARY KEY, customer_name TEXT)`); err != nil {
		t.Fatal(err)
	}

	meta, err := store.Open(filepath.Join(t.TempDir(), "meta.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { meta.Close() })

	mappings, err := mapping.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	svc := sheets.NewService(upstream.URL, "S", 5, time.Second)
	h := &handler.Handler{
		Sheets:       svc,
		Introspector: &schema.Introspector{DB: db, Driver: "sqlite3"},
		Engine:       syncer.NewEngine(db, "sqlite3", svc, meta, 100),
		Store:        meta,
		Mappings:     mappings,
		AuthToken:    "secret",
	}

	r := router.New()
	api.RegisterRoutes(r, h)
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)

	return &fixture{api: srv, db: db, meta: meta}
}

func getJSON(t *testing.T, url string) (int, model.APIResponse) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body model.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, body := getJSON(t, f.api.URL+"/health")
	if status != http.StatusOK || !body.Success {
		t.Errorf("health = %d %+v", status, body)
	}
}

func TestListSheetsEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.api.URL+"/sync/sheets", "application/json",
		strings.NewReader(`{"spreadsheetId":"sheet-1"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Sheets []model.SheetInfo `json:"sheets"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || len(body.Data.Sheets) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	sheet := body.Data.Sheets[0]
	if sheet.Name != "S_Reservations" || sheet.RowCount != 2 {
		t.Errorf("unexpected sheet %+v", sheet)
	}
}

func TestListSheetsMissingID(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.api.URL+"/sync/sheets", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTableSchemaLive(t *testing.T) {
	f := newFixture(t)
	status, body := getJSON(t, f.api.URL+"/sync/schema?table=reservations")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("schema = %d %+v", status, body)
	}

	data := body.Data.(map[string]interface{})
	if data["source"] != schema.SourceLive {
		t.Errorf("source = %v, want live", data["source"])
	}
}

func TestTableSchemaFallback(t *testing.T) {
	f := newFixture(t)
	// tours has no live table in the destination but a static fallback.
	status, body := getJSON(t, f.api.URL+"/sync/schema?table=tours")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("schema = %d %+v", status, body)
	}
	data := body.Data.(map[string]interface{})
	if data["source"] != schema.SourceFallback {
		t.Errorf("source = %v, want fallback", data["source"])
	}
}

func TestTableSchemaUnknown(t *testing.T) {
	f := newFixture(t)
	status, body := getJSON(t, f.api.URL+"/sync/schema?table=mystery")
	if status != http.StatusOK || body.Success {
		t.Errorf("unknown table should answer success=false, got %d %+v", status, body)
	}
}

func TestTableSchemaInvalidName(t *testing.T) {
	f := newFixture(t)
	status, _ := getJSON(t, f.api.URL+"/sync/schema?table=drop%20table")
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestAllTables(t *testing.T) {
	f := newFixture(t)
	status, body := getJSON(t, f.api.URL+"/sync/all-tables")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("all-tables = %d %+v", status, body)
	}

	raw, _ := json.Marshal(body.Data)
	var data struct {
		Tables []model.TableRef `json:"tables"`
	}
	json.Unmarshal(raw, &data)

	found := false
	for _, table := range data.Tables {
		if table.Name == "reservations" {
			found = true
			if table.DisplayName != "Reservations" {
				t.Errorf("display name = %q", table.DisplayName)
			}
		}
	}
	if !found {
		t.Errorf("reservations missing from %v", data.Tables)
	}
}

func TestSuggestMappingEndpoint(t *testing.T) {
	f := newFixture(t)

	u := f.api.URL + "/sync/tables?tableName=reservations&sheetColumns=" +
		"%EC%98%88%EC%95%BD%EB%B2%88%ED%98%B8,%EA%B3%A0%EA%B0%9D%EB%AA%85" // 예약번호,고객명
	status, body := getJSON(t, u)
	if status != http.StatusOK || !body.Success {
		t.Fatalf("suggest = %d %+v", status, body)
	}

	raw, _ := json.Marshal(body.Data)
	var data struct {
		Mapping model.ColumnMapping `json:"mapping"`
	}
	json.Unmarshal(raw, &data)

	if data.Mapping["예약번호"] != "id" || data.Mapping["고객명"] != "customer_name" {
		t.Errorf("mapping = %v", data.Mapping)
	}
}

func TestSyncHistoryNullBeforeFirstSync(t *testing.T) {
	f := newFixture(t)
	status, body := getJSON(t, f.api.URL+"/sync/history?table=reservations&spreadsheetId=sheet-1")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("history = %d %+v", status, body)
	}
	data := body.Data.(map[string]interface{})
	if data["lastSyncTime"] != nil {
		t.Errorf("lastSyncTime = %v, want null", data["lastSyncTime"])
	}
}

func TestStreamSyncRequiresToken(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodPost, f.api.URL+"/sync/flexible/stream",
		strings.NewReader(`{"sheetName":"S_Reservations","targetTable":"reservations"}`))
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStreamSyncValidatesBody(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodPost, f.api.URL+"/sync/flexible/stream",
		strings.NewReader(`{"sheetName":"S_Reservations"}`))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStreamSyncEndToEnd(t *testing.T) {
	f := newFixture(t)

	payload, _ := json.Marshal(model.SyncRequest{
		SpreadsheetID: "sheet-1",
		SheetName:     "S_Reservations",
		TargetTable:   "reservations",
		ColumnMapping: model.ColumnMapping{"예약번호": "id", "고객명": "customer_name"},
	})
	req, _ := http.NewRequest(http.MethodPost, f.api.URL+"/sync/flexible/stream", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("content type = %q", ct)
	}

	var events []model.SyncEvent
	err = syncer.ScanEvents(resp.Body,
		func(ev model.SyncEvent) { events = append(events, ev) },
		func(line string, err error) { t.Errorf("malformed stream line %q: %v", line, err) },
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) == 0 {
		t.Fatal("empty event stream")
	}

	result := events[len(events)-1]
	if result.Type != model.EventResult || !result.Success {
		t.Fatalf("unexpected final event %+v", result)
	}
	if result.Details == nil || result.Details.Inserted != 2 {
		t.Errorf("details = %+v, want 2 inserted", result.Details)
	}

	var count int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM reservations`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("destination rows = %d, want 2", count)
	}

	// The run and its log are now visible over the API.
	status, body := getJSON(t, f.api.URL+"/sync/runs")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("runs = %d %+v", status, body)
	}
	raw, _ := json.Marshal(body.Data)
	var runsData struct {
		Runs []model.SyncRun `json:"runs"`
	}
	json.Unmarshal(raw, &runsData)
	if len(runsData.Runs) != 1 || runsData.Runs[0].Status != "completed" {
		t.Fatalf("runs = %+v", runsData.Runs)
	}

	status, body = getJSON(t, f.api.URL+"/sync/runs/"+runsData.Runs[0].ID+"/logs")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("logs = %d %+v", status, body)
	}

	// And the history marker moved.
	status, body = getJSON(t, f.api.URL+"/sync/history?table=reservations&spreadsheetId=sheet-1")
	if status != http.StatusOK {
		t.Fatalf("history = %d", status)
	}
	data := body.Data.(map[string]interface{})
	if data["lastSyncTime"] == nil {
		t.Error("lastSyncTime still null after a successful sync")
	}
}
