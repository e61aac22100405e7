package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"TradeMirror/internal/domain/models"
	drepo "TradeMirror/internal/domain/repository"
	"TradeMirror/internal/services/profiles"
	"TradeMirror/internal/usecase"
	xlogger "TradeMirror/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubMetrics struct{}

func (stubMetrics) RecordAnalysis(string)            {}
func (stubMetrics) RecordBiasScore(string, float64)  {}
func (stubMetrics) RecordTradesIngested(string, int) {}
func (stubMetrics) RecordError(string)               {}
func (stubMetrics) RecordLatency(string, float64)    {}

// outageStore accepts writes but fails every read, like a ClickHouse that went
// away after ingest.
type outageStore struct{}

func (outageStore) Init(context.Context) error {
	return nil
}

func (outageStore) Store(context.Context, string, *models.Trade) error {
	return nil
}

func (outageStore) StoreBatch(context.Context, string, []models.Trade) error {
	return nil
}

func (outageStore) BySession(context.Context, string, int) ([]models.Trade, error) {
	return nil, errors.New("clickhouse unavailable")
}

func (outageStore) Health(context.Context) error {
	return errors.New("clickhouse unavailable")
}

func (outageStore) Close() error {
	return nil
}

type memStore struct {
	trades map[string][]models.Trade
}

func (s *memStore) Init(context.Context) error {
	return nil
}

func (s *memStore) Store(_ context.Context, sessionID string, t *models.Trade) error {
	s.trades[sessionID] = append(s.trades[sessionID], *t)
	return nil
}

func (s *memStore) StoreBatch(_ context.Context, sessionID string, trades []models.Trade) error {
	s.trades[sessionID] = append(s.trades[sessionID], trades...)
	return nil
}

func (s *memStore) BySession(_ context.Context, sessionID string, limit int) ([]models.Trade, error) {
	ts := s.trades[sessionID]
	if len(ts) > limit {
		ts = ts[:limit]
	}
	return ts, nil
}

func (s *memStore) Health(context.Context) error {
	return nil
}

func (s *memStore) Close() error {
	return nil
}

func newTestServer(t *testing.T, store drepo.TradeStore) *echo.Echo {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	analyzer := usecase.NewBehaviorAnalyzer(profiles.NewStaticSource(), stubMetrics{})
	ingestor := usecase.NewTradeIngestor(nil, store, stubMetrics{}, "clickhouse", 0, 0)
	h := NewBehaviorEchoHandler(l, analyzer, ingestor)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

// The response envelope carries the real status in the body; the transport
// status is always 200.
func uploadJSON(t *testing.T, e *echo.Echo, sessionID, body string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/trades", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("upload response: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Fatalf("upload status=%d, body=%s", resp.Status, rec.Body.String())
	}
}

func getReport(t *testing.T, e *echo.Echo, path string) (int, models.BehaviorReport) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("report response: %v", err)
	}
	var report models.BehaviorReport
	if resp.Status == http.StatusOK {
		if err := json.Unmarshal(resp.Data, &report); err != nil {
			t.Fatalf("report payload: %v", err)
		}
	}
	return resp.Status, report
}

const sessionTrades = `[
	{"ts":"2024-03-01T10:00:00Z","side":"BUY","asset":"AAPL","notional":1000},
	{"ts":"2024-03-02T10:30:00Z","side":"SELL","asset":"AAPL","notional":1000,"pl":-50},
	{"ts":"2024-03-03T11:00:00Z","side":"BUY","asset":"AAPL","notional":1500}
]`

func TestSessionReportFallsBackWhenStoreDown(t *testing.T) {
	e := newTestServer(t, outageStore{})

	uploadJSON(t, e, "s1", sessionTrades)

	status, report := getReport(t, e, "/api/sessions/s1/report?profile=patient_value")
	if status != http.StatusOK {
		t.Fatalf("report status=%d, want 200 via session fallback", status)
	}
	if report.TradeCount != 3 {
		t.Fatalf("tradeCount=%d, want 3 from session fallback", report.TradeCount)
	}
	if report.Alignment == nil || report.Profile != "patient_value" {
		t.Fatalf("expected alignment against patient_value, got %+v", report.Alignment)
	}
}

func TestSessionReportUnknownSessionWithStoreDown(t *testing.T) {
	e := newTestServer(t, outageStore{})

	status, _ := getReport(t, e, "/api/sessions/never-seen/report")
	if status != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500 when the store is down and nothing is cached", status)
	}
}

func TestSessionReportWindowFilter(t *testing.T) {
	e := newTestServer(t, &memStore{trades: make(map[string][]models.Trade)})

	uploadJSON(t, e, "s2", sessionTrades)

	status, report := getReport(t, e, "/api/sessions/s2/report?from=2024-03-02T00:00:00Z&to=2024-03-02T23:59:59Z")
	if status != http.StatusOK {
		t.Fatalf("report status=%d, want 200", status)
	}
	if report.TradeCount != 1 {
		t.Fatalf("tradeCount=%d, want 1 inside the window", report.TradeCount)
	}

	status, _ = getReport(t, e, "/api/sessions/s2/report?from=2030-01-01T00:00:00Z")
	if status != http.StatusNotFound {
		t.Fatalf("empty window should report 404, got %d", status)
	}
}
