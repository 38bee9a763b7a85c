// Package syncer moves worksheet rows into the destination table and
// streams progress events while doing it. Client consumes the event stream
// of a running sync; Engine produces it.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"sheetsync/internal/model"
)

// State of one sync run as seen by the client.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrNoResult is returned when the stream ends before a result event: the
// run cannot be called successful without one.
var ErrNoResult = errors.New("sync result not received")

// ErrBusy rejects a second Run while one is in flight. One sync owns the
// destination table for the duration of the run.
var ErrBusy = errors.New("a sync is already in progress")

// Client drives one sync run against the streaming endpoint. Once
// streaming starts the run goes to stream-end or network failure; there is
// no mid-stream cancel.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	mu    sync.Mutex
	state State
}

func NewClient(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, HTTP: &http.Client{}}
}

// State returns the current run state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run posts the sync request and consumes the event stream to completion,
// invoking handle for every event in arrival order. Malformed complete
// lines surface to the handler as warn events. The run succeeds only when
// a result event with success=true arrives; any other stream end is a
// failure.
func (c *Client) Run(ctx context.Context, req model.SyncRequest, handle func(model.SyncEvent)) error {
	c.mu.Lock()
	if c.state == StateRequesting || c.state == StateStreaming {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateRequesting
	c.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		c.setState(StateFailed)
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sync/flexible/stream", bytes.NewReader(body))
	if err != nil {
		c.setState(StateFailed)
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setState(StateFailed)
		return fmt.Errorf("sync endpoint returned %d", resp.StatusCode)
	}

	c.setState(StateStreaming)

	var result *model.SyncEvent
	scanErr := ScanEvents(resp.Body,
		func(ev model.SyncEvent) {
			if ev.Type == model.EventResult {
				r := ev
				result = &r
			}
			handle(ev)
		},
		func(line string, err error) {
			handle(model.SyncEvent{
				Type:    model.EventWarn,
				Message: fmt.Sprintf("skipped malformed stream line: %v", err),
			})
		},
	)

	switch {
	case scanErr != nil:
		c.setState(StateFailed)
		return fmt.Errorf("sync stream broke: %w", scanErr)
	case result == nil:
		c.setState(StateFailed)
		return ErrNoResult
	case !result.Success:
		c.setState(StateFailed)
		if result.Message != "" {
			return errors.New(result.Message)
		}
		return errors.New("sync failed")
	default:
		c.setState(StateCompleted)
		return nil
	}
}
