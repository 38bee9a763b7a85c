package progress

import (
	"testing"
	"time"
)

func TestEstimatorDefaultETA(t *testing.T) {
	e := NewEstimator(0, 0)
	// 200 rows at 10ms each.
	if e.etaMs != 2000 {
		t.Errorf("default eta = %v, want 2000", e.etaMs)
	}
}

func TestEstimatorMinimumETA(t *testing.T) {
	e := NewEstimator(10, 10)
	if e.etaMs != MinETAMs {
		t.Errorf("eta = %v, want floor %v", e.etaMs, MinETAMs)
	}
}

func TestEstimatorTimerPercent(t *testing.T) {
	e := NewEstimator(200, 10) // eta 2000ms
	start := time.Now()
	e.Begin(start)

	if got := e.TimerPercent(start.Add(time.Second)); got != 50 {
		t.Errorf("percent at half eta = %v, want 50", got)
	}
	if got := e.TimerPercent(start.Add(time.Minute)); got != 95 {
		t.Errorf("timer percent must cap at 95, got %v", got)
	}
}

func TestEstimatorTimerPercentBeforeBegin(t *testing.T) {
	e := NewEstimator(200, 10)
	if got := e.TimerPercent(time.Now()); got != 0 {
		t.Errorf("percent before Begin = %v, want 0", got)
	}
}

func TestEstimatorObserveStartRecomputes(t *testing.T) {
	e := NewEstimator(200, 10)
	e.ObserveStart(1000)
	if e.etaMs != 10000 {
		t.Errorf("eta after start = %v, want 10000", e.etaMs)
	}

	e.ObserveStart(50) // 500ms raw, floored
	if e.etaMs != MinETAMs {
		t.Errorf("eta after small start = %v, want floor %v", e.etaMs, MinETAMs)
	}
}

func TestEstimatorRemainingFromObservedPace(t *testing.T) {
	e := NewEstimator(200, 10)
	start := time.Now()
	e.Begin(start)
	e.ObserveStart(100)
	e.ObserveProgress(50, 100)

	// 50 rows took 2s, so the remaining 50 take another 2s.
	got := e.RemainingMs(start.Add(2 * time.Second))
	if got != 2000 {
		t.Errorf("remaining = %v, want 2000", got)
	}
}

func TestEstimatorRemainingBeforeProgress(t *testing.T) {
	e := NewEstimator(200, 10)
	e.Begin(time.Now())
	e.ObserveStart(100)

	// No rows processed yet: the learned rate stands in.
	if got := e.RemainingMs(time.Now()); got != 1000 {
		t.Errorf("remaining = %v, want 1000", got)
	}
}

// The UI ticker polls the estimator from its own goroutine while stream
// events update it, mirroring the CLI wiring. The race detector flags any
// unguarded field access here.
func TestEstimatorConcurrentTimerAndObserve(t *testing.T) {
	e := NewEstimator(200, 10)
	e.Begin(time.Now())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			e.TimerPercent(time.Now())
			e.RemainingMs(time.Now())
		}
	}()

	for i := 0; i < 1000; i++ {
		e.ObserveStart(100)
		e.ObserveProgress(i%100, 100)
	}
	<-done
}

func TestEstimatorLearnRate(t *testing.T) {
	e := NewEstimator(200, 10)
	got := e.LearnRate(4*time.Second, 150, 50)
	if got != 20 {
		t.Errorf("learned rate = %v, want 20 (4000ms / 200 rows)", got)
	}
}

func TestEstimatorLearnRateClamped(t *testing.T) {
	e := NewEstimator(200, 10)

	if got := e.LearnRate(time.Millisecond, 100, 100); got != MinMsPerRow {
		t.Errorf("tiny duration must clamp to %v, got %v", MinMsPerRow, got)
	}
	if got := e.LearnRate(time.Hour, 100, 100); got != MaxMsPerRow {
		t.Errorf("huge duration must clamp to %v, got %v", MaxMsPerRow, got)
	}
}

func TestEstimatorLearnRateZeroRows(t *testing.T) {
	e := NewEstimator(0, 0) // estimate defaults to 200
	got := e.LearnRate(2*time.Second, 0, 0)
	// 2000ms over max(0, 200, 1) rows.
	if got != 10 {
		t.Errorf("learned rate = %v, want 10", got)
	}
}
