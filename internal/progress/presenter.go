// Package progress turns the sync event stream into operator-facing state:
// a monotonic completion percentage, running row counts, and a tagged,
// append-only log that can be filtered and exported.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sheetsync/internal/model"
)

// Log line tags.
const (
	TagInfo     = "INFO"
	TagWarn     = "WARN"
	TagError    = "ERROR"
	TagStart    = "START"
	TagProgress = "PROGRESS"
	TagResult   = "RESULT"
)

// Line is one entry of the run log.
type Line struct {
	Tag     string    `json:"tag"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Presenter consumes sync events in arrival order. The percentage never
// regresses and reaches exactly 100 only after a result event; counts are
// taken verbatim from the most recent progress event.
type Presenter struct {
	mu sync.Mutex

	percent   float64
	total     int
	processed int
	inserted  int
	updated   int
	errors    int
	finished  bool
	succeeded bool

	lines          []Line
	lastCheckpoint int
}

func NewPresenter() *Presenter {
	return &Presenter{}
}

func (p *Presenter) log(tag, message string) {
	p.lines = append(p.lines, Line{Tag: tag, Message: message, At: time.Now()})
}

// Handle consumes one event.
func (p *Presenter) Handle(ev model.SyncEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case model.EventStart:
		p.total = ev.Total
		p.lastCheckpoint = 0
		p.log(TagStart, fmt.Sprintf("starting sync of %d rows", ev.Total))

	case model.EventProgress:
		p.processed = ev.Processed
		p.inserted = ev.Inserted
		p.updated = ev.Updated
		p.errors = ev.Errors
		if ev.Total > 0 {
			p.total = ev.Total
			pct := float64(ev.Processed) / float64(ev.Total) * 100
			if pct > 99 {
				pct = 99 // 100 is reserved for the result event
			}
			p.raisePercent(pct)
		}
		p.logProgressCheckpoint(ev)

	case model.EventInfo:
		p.log(TagInfo, ev.Message)
	case model.EventWarn:
		p.log(TagWarn, ev.Message)
	case model.EventError:
		p.log(TagError, ev.Message)

	case model.EventResult:
		p.finished = true
		p.succeeded = ev.Success
		if ev.Success {
			p.raisePercent(100)
		}
		if ev.Details != nil {
			p.inserted = ev.Details.Inserted
			p.updated = ev.Details.Updated
			p.errors = ev.Details.Errors
		}
		p.log(TagResult, ev.Message)
	}
}

// logProgressCheckpoint keeps the log bounded: PROGRESS lines only appear
// at 10%-of-total steps. Runs with fewer than 10 rows log every event.
func (p *Presenter) logProgressCheckpoint(ev model.SyncEvent) {
	step := p.total / 10
	if step == 0 {
		p.log(TagProgress, progressLine(ev))
		return
	}
	checkpoint := ev.Processed / step
	if checkpoint > p.lastCheckpoint {
		p.lastCheckpoint = checkpoint
		p.log(TagProgress, progressLine(ev))
	}
}

func progressLine(ev model.SyncEvent) string {
	return fmt.Sprintf("%d/%d rows (%d inserted, %d updated, %d errors)",
		ev.Processed, ev.Total, ev.Inserted, ev.Updated, ev.Errors)
}

func (p *Presenter) raisePercent(pct float64) {
	if pct > p.percent {
		p.percent = pct
	}
}

// Advance raises the displayed percentage from a UI timer. It obeys the
// same monotonic rule and can never push past 95: authoritative progress
// and the terminal result own the rest.
func (p *Presenter) Advance(pct float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	if pct > 95 {
		pct = 95
	}
	p.raisePercent(pct)
}

// Percent returns the current completion percentage.
func (p *Presenter) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}

// Counts returns processed plus the latest inserted/updated/errors counts.
func (p *Presenter) Counts() (processed int, details model.SyncDetails) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, model.SyncDetails{Inserted: p.inserted, Updated: p.updated, Errors: p.errors}
}

// Finished reports whether a result event arrived, and whether it was a
// success.
func (p *Presenter) Finished() (done, succeeded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished, p.succeeded
}

// Lines returns the log, optionally filtered by tag ("" keeps everything).
func (p *Presenter) Lines(tag string) []Line {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Line, 0, len(p.lines))
	for _, l := range p.lines {
		if tag == "" || l.Tag == tag {
			out = append(out, l)
		}
	}
	return out
}

// Export writes the full log as text.
func (p *Presenter) Export(w io.Writer) error {
	for _, l := range p.Lines("") {
		line := fmt.Sprintf("[%s] %-8s %s\n", l.At.Format("15:04:05"), l.Tag, l.Message)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ExportFile writes the log to a timestamped text file under dir and
// returns its path.
func (p *Presenter) ExportFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("sync-log-%s.txt", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	var sb strings.Builder
	if err := p.Export(&sb); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		return "", err
	}
	return path, nil
}
