package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sheetsync/internal/model"
)

// Service is the server-side reader: it fetches the whole workbook from the
// upstream spreadsheet endpoint and shapes it into per-worksheet listings
// and row streams for the sync engine.
type Service struct {
	BaseURL    string
	Prefix     string
	SampleRows int
	Timeout    time.Duration
	HTTP       *http.Client
}

func NewService(baseURL, prefix string, sampleRows int, timeout time.Duration) *Service {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		BaseURL:    baseURL,
		Prefix:     prefix,
		SampleRows: sampleRows,
		Timeout:    timeout,
		HTTP:       &http.Client{},
	}
}

type worksheet struct {
	Name   string          `json:"name"`
	Values [][]interface{} `json:"values"`
}

type workbook struct {
	Sheets []worksheet `json:"sheets"`
}

func (s *Service) fetchWorkbook(ctx context.Context, spreadsheetID string) (*workbook, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s", strings.TrimRight(s.BaseURL, "/"), spreadsheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, classify(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classify(fmt.Errorf("spreadsheet fetch returned %d", resp.StatusCode), resp.StatusCode)
	}

	var wb workbook
	if err := json.NewDecoder(resp.Body).Decode(&wb); err != nil {
		return nil, fmt.Errorf("failed to decode workbook: %w", err)
	}
	return &wb, nil
}

// headerName cleans one header cell the way sheet exports need: trimmed,
// quotes stripped.
func headerName(cell interface{}) string {
	h := strings.TrimSpace(fmt.Sprint(cell))
	return strings.ReplaceAll(h, `"`, "")
}

// rowsToMaps pairs each data row with the header columns. Short rows are
// padded with nil, long rows truncated to the header width.
func rowsToMaps(columns []string, values [][]interface{}) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(values))
	for _, raw := range values {
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i < len(raw) {
				row[col] = raw[i]
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Service) shape(ws worksheet) model.SheetInfo {
	info := model.SheetInfo{Name: ws.Name}

	if len(ws.Values) == 0 {
		info.Error = "sheet has no header row"
		return info
	}

	columns := make([]string, 0, len(ws.Values[0]))
	for _, cell := range ws.Values[0] {
		columns = append(columns, headerName(cell))
	}
	info.Columns = columns

	data := ws.Values[1:]
	info.RowCount = len(data)

	sample := data
	if len(sample) > s.SampleRows {
		sample = sample[:s.SampleRows]
	}
	info.SampleData = rowsToMaps(columns, sample)
	return info
}

// ListSheets returns the worksheets whose name starts with the configured
// prefix, each with columns, row count and sample. A malformed worksheet
// carries its problem in Error; the rest of the workbook is unaffected.
func (s *Service) ListSheets(ctx context.Context, spreadsheetID string) ([]model.SheetInfo, error) {
	wb, err := s.fetchWorkbook(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	infos := make([]model.SheetInfo, 0, len(wb.Sheets))
	for _, ws := range wb.Sheets {
		if s.Prefix != "" && !strings.HasPrefix(ws.Name, s.Prefix) {
			continue
		}
		infos = append(infos, s.shape(ws))
	}
	return infos, nil
}

// Rows returns the full row set of one worksheet for syncing.
func (s *Service) Rows(ctx context.Context, spreadsheetID, sheetName string) ([]string, []map[string]interface{}, error) {
	wb, err := s.fetchWorkbook(ctx, spreadsheetID)
	if err != nil {
		return nil, nil, err
	}

	for _, ws := range wb.Sheets {
		if ws.Name != sheetName {
			continue
		}
		if len(ws.Values) == 0 {
			return nil, nil, fmt.Errorf("sheet %s has no header row", sheetName)
		}
		columns := make([]string, 0, len(ws.Values[0]))
		for _, cell := range ws.Values[0] {
			columns = append(columns, headerName(cell))
		}
		return columns, rowsToMaps(columns, ws.Values[1:]), nil
	}
	return nil, nil, fmt.Errorf("sheet %s not found in spreadsheet", sheetName)
}
