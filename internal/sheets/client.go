// Package sheets lists the syncable worksheets of a spreadsheet: their
// header columns, row counts and a bounded sample of rows.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sheetsync/internal/model"
)

// DefaultTimeout bounds the whole sheet-list fetch.
const DefaultTimeout = 35 * time.Second

// Client fetches worksheet listings from the sheet service.
type Client struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	HTTP    *http.Client
}

// NewClient builds a client with the default fetch timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: DefaultTimeout,
		HTTP:    &http.Client{},
	}
}

type sheetsEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Sheets []model.SheetInfo `json:"sheets"`
	} `json:"data"`
}

// ListSheets returns the worksheets of spreadsheetID that take part in
// syncing, in workbook order. The result can be empty; a per-sheet problem
// is reported on that sheet's Error field, not as a fetch failure. A
// whole-fetch failure is classified (ErrTimeout, ErrPermission,
// ErrNotFound) for errors.Is branching.
func (c *Client) ListSheets(ctx context.Context, spreadsheetID string) ([]model.SheetInfo, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"spreadsheetId": spreadsheetID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sync/sheets", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, classify(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classify(fmt.Errorf("sheet list request returned %d", resp.StatusCode), resp.StatusCode)
	}

	var envelope sheetsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode sheet list: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("sheet service reported failure: %s", envelope.Message)
	}
	return envelope.Data.Sheets, nil
}
