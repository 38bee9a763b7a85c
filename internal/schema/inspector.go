// Package schema resolves destination-table column definitions, either over
// the schema endpoint (client side, with a two-tier retry and a static
// fallback) or straight from the destination database (server side).
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"sheetsync/internal/model"
)

// Column list sources reported alongside results.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
	SourceNone     = "none"
)

// Inspector fetches a destination table's columns from the schema endpoint.
// A failed lookup degrades to the static fallback instead of blocking the
// mapping flow.
type Inspector struct {
	BaseURL string
	Client  *http.Client
	Policy  RetryPolicy
}

// NewInspector uses the default two-tier retry policy.
func NewInspector(baseURL string) *Inspector {
	return &Inspector{
		BaseURL: baseURL,
		Client:  &http.Client{},
		Policy:  DefaultPolicy,
	}
}

type schemaPayload struct {
	Columns []model.ColumnInfo `json:"columns"`
	Source  string             `json:"source"`
}

type schemaEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    schemaPayload `json:"data"`
}

// TableColumns returns the column list for table and where it came from:
// live endpoint, hardcoded fallback, or none (empty list, table unknown on
// both tiers). The live lookup is attempted per the retry policy; every
// failure past that point is absorbed into the degraded result.
func (in *Inspector) TableColumns(ctx context.Context, table string) ([]model.ColumnInfo, string) {
	var columns []model.ColumnInfo

	err := in.Policy.Do(ctx, func(attemptCtx context.Context) error {
		cols, err := in.fetch(attemptCtx, table)
		if err != nil {
			return err
		}
		columns = cols
		return nil
	})
	if err == nil {
		return columns, SourceLive
	}

	log.Printf("schema: live lookup for %s failed (%v), using fallback", table, err)
	if cols := FallbackColumns(table); len(cols) > 0 {
		return cols, SourceFallback
	}
	return []model.ColumnInfo{}, SourceNone
}

func (in *Inspector) fetch(ctx context.Context, table string) ([]model.ColumnInfo, error) {
	u := fmt.Sprintf("%s/sync/schema?table=%s", in.BaseURL, url.QueryEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := in.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schema request returned %d", resp.StatusCode)
	}

	var envelope schemaEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode schema response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("schema lookup reported failure: %s", envelope.Message)
	}
	return envelope.Data.Columns, nil
}
