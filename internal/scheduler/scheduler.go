package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sheetsync/internal/mapping"
	"sheetsync/internal/model"
	"sheetsync/internal/sheets"
	"sheetsync/internal/syncer"
)

// TableStatus records the outcome of the most recent scheduled run for one
// destination table.
type TableStatus struct {
	Table     string    `json:"table"`
	Sheet     string    `json:"sheet"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"lastRun"`
	LastError string    `json:"lastError,omitempty"`
	Inserted  int       `json:"inserted"`
	Updated   int       `json:"updated"`
}

// Scheduler runs incremental syncs on a cron schedule for every destination
// table that has a saved column mapping. Sheets are matched to tables by
// name: "S_Tour Members" pairs with tour_members.
type Scheduler struct {
	Engine   *syncer.Engine
	Sheets   *sheets.Service
	Mappings *mapping.Store

	SpreadsheetID string
	Schedule      string

	cron *cron.Cron

	mu     sync.RWMutex
	status map[string]*TableStatus
}

func New(engine *syncer.Engine, svc *sheets.Service, mappings *mapping.Store, spreadsheetID, schedule string) *Scheduler {
	return &Scheduler{
		Engine:        engine,
		Sheets:        svc,
		Mappings:      mappings,
		SpreadsheetID: spreadsheetID,
		Schedule:      schedule,
		status:        make(map[string]*TableStatus),
	}
}

// Start registers the cron entry and begins scheduling. It does not run an
// immediate sync; the first run happens at the next schedule boundary.
func (s *Scheduler) Start() error {
	if s.SpreadsheetID == "" {
		return fmt.Errorf("scheduler: no spreadsheet ID configured")
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Schedule, s.RunAll); err != nil {
		return fmt.Errorf("scheduler: bad schedule %q: %w", s.Schedule, err)
	}

	s.cron.Start()
	log.Printf("scheduler: started with schedule %q", s.Schedule)
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("scheduler: stopped")
}

// Status returns a snapshot of per-table outcomes.
func (s *Scheduler) Status() []TableStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TableStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	return out
}

// RunAll syncs every table that has a saved mapping and a matching sheet.
func (s *Scheduler) RunAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	infos, err := s.Sheets.ListSheets(ctx, s.SpreadsheetID)
	if err != nil {
		log.Printf("scheduler: listing sheets failed: %v", err)
		return
	}

	tables := s.Mappings.Tables()
	if len(tables) == 0 {
		log.Println("scheduler: no saved mappings, nothing to sync")
		return
	}

	for _, table := range tables {
		sheet, ok := matchSheet(table, infos)
		if !ok {
			log.Printf("scheduler: no sheet matches table %s, skipping", table)
			continue
		}
		s.runOne(ctx, table, sheet)
	}
}

func (s *Scheduler) runOne(ctx context.Context, table, sheet string) {
	m, ok := s.Mappings.Load(table)
	if !ok || len(m) == 0 {
		return
	}

	s.setRunning(table, sheet)

	req := model.SyncRequest{
		SpreadsheetID:         s.SpreadsheetID,
		SheetName:             sheet,
		TargetTable:           table,
		ColumnMapping:         m,
		EnableIncrementalSync: true,
	}

	var result *model.SyncEvent
	s.Engine.Run(ctx, req, func(ev model.SyncEvent) {
		if ev.Type == model.EventResult {
			result = &ev
		}
	})

	s.finish(table, result)
}

func (s *Scheduler) setRunning(table, sheet string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[table] = &TableStatus{Table: table, Sheet: sheet, Running: true, LastRun: time.Now()}
}

func (s *Scheduler) finish(table string, result *model.SyncEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.status[table]
	if !ok {
		return
	}
	st.Running = false

	switch {
	case result == nil:
		st.LastError = "sync produced no result"
	case !result.Success:
		st.LastError = result.Message
	default:
		st.LastError = ""
		if result.Details != nil {
			st.Inserted = result.Details.Inserted
			st.Updated = result.Details.Updated
		}
		log.Printf("scheduler: %s synced, %d inserted, %d updated", table, st.Inserted, st.Updated)
	}

	if st.LastError != "" {
		log.Printf("scheduler: %s failed: %s", table, st.LastError)
	}
}

// matchSheet pairs a destination table with a worksheet by normalized name.
// The sync prefix and everything up to the first separator after it are
// ignored, so "S_Reservations" and "reservations" pair up.
func matchSheet(table string, infos []model.SheetInfo) (string, bool) {
	want := normalizeName(table)
	for _, info := range infos {
		if info.Error != "" {
			continue
		}
		if normalizeSheetName(info.Name) == want {
			return info.Name, true
		}
	}
	return "", false
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeSheetName additionally drops the sync prefix, which survives
// normalization as one leading "s". Table names keep their own leading
// letters, so only the sheet side is stripped.
func normalizeSheetName(name string) string {
	return strings.TrimPrefix(normalizeName(name), "s")
}
