package progress

import (
	"sync"
	"time"

	"sheetsync/pkg/utils"
)

// ETA defaults and bounds. The learned rate only ever feeds display; it
// never affects sync correctness.
const (
	DefaultMsPerRow    = 10.0
	DefaultRowEstimate = 200
	MinETAMs           = 1500.0
	MinMsPerRow        = 3.0
	MaxMsPerRow        = 200.0

	// TickInterval is the UI re-render pace while streaming.
	TickInterval = 200 * time.Millisecond
)

// Estimator predicts completion from a learned rows-per-millisecond rate
// until authoritative totals arrive on the stream, then from the observed
// pace of the run itself. The UI timer polls it from a separate goroutine
// while stream events update it, so all state lives behind the mutex.
type Estimator struct {
	mu sync.Mutex

	msPerRow      float64
	estimatedRows int
	etaMs         float64

	startedAt time.Time
	total     int
	processed int
}

// NewEstimator seeds the ETA before the request is sent. estimatedRows
// defaults to 200 when unknown; learnedMsPerRow to 10 when nothing is
// stored.
func NewEstimator(estimatedRows int, learnedMsPerRow float64) *Estimator {
	if estimatedRows <= 0 {
		estimatedRows = DefaultRowEstimate
	}
	if learnedMsPerRow <= 0 {
		learnedMsPerRow = DefaultMsPerRow
	}
	e := &Estimator{
		msPerRow:      learnedMsPerRow,
		estimatedRows: estimatedRows,
	}
	e.etaMs = float64(estimatedRows) * learnedMsPerRow
	if e.etaMs < MinETAMs {
		e.etaMs = MinETAMs
	}
	return e
}

// Begin marks the moment the request went out.
func (e *Estimator) Begin(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startedAt = now
}

// TimerPercent is the percentage the UI timer shows at now: it advances
// toward 95 at the pace the ETA implies, as pure feedback until real
// progress arrives.
func (e *Estimator) TimerPercent(now time.Time) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startedAt.IsZero() || e.etaMs <= 0 {
		return 0
	}
	pct := float64(now.Sub(e.startedAt).Milliseconds()) / e.etaMs * 100
	if pct > 95 {
		pct = 95
	}
	return pct
}

// ObserveStart recomputes the ETA from the authoritative row total.
func (e *Estimator) ObserveStart(total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.total = total
	if total > 0 {
		e.etaMs = float64(total) * e.msPerRow
		if e.etaMs < MinETAMs {
			e.etaMs = MinETAMs
		}
	}
}

// ObserveProgress records the latest processed/total counts.
func (e *Estimator) ObserveProgress(processed, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processed = processed
	if total > 0 {
		e.total = total
	}
}

// RemainingMs estimates time left at now: once at least one row has been
// processed, the run's own pace (elapsed/processed per row) extrapolates
// the rest; before that the learned rate stands in.
func (e *Estimator) RemainingMs(now time.Time) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	remaining := e.total - e.processed
	if remaining <= 0 {
		return 0
	}
	if e.processed > 0 && !e.startedAt.IsZero() {
		elapsed := float64(now.Sub(e.startedAt).Milliseconds())
		return float64(remaining) * (elapsed / float64(e.processed))
	}
	return float64(remaining) * e.msPerRow
}

// LearnRate derives the ms-per-row rate to persist for the next run from a
// completed one, clamped to [3, 200].
func (e *Estimator) LearnRate(duration time.Duration, inserted, updated int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows := inserted + updated
	if e.estimatedRows > rows {
		rows = e.estimatedRows
	}
	if rows < 1 {
		rows = 1
	}
	return utils.Clamp(float64(duration.Milliseconds())/float64(rows), MinMsPerRow, MaxMsPerRow)
}
