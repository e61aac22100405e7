package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"TradeMirror/internal/domain/models"
)

type fakeProfiles struct {
	vectors map[string]models.StyleVector
}

func (f *fakeProfiles) Profiles(_ context.Context) ([]models.ReferenceProfile, error) {
	out := make([]models.ReferenceProfile, 0, len(f.vectors))
	for name, v := range f.vectors {
		out = append(out, models.ReferenceProfile{Name: name, Vector: v})
	}
	return out, nil
}

func (f *fakeProfiles) Vector(_ context.Context, name string) (models.StyleVector, error) {
	v, ok := f.vectors[name]
	if !ok {
		return models.StyleVector{}, fmt.Errorf("unknown reference profile %q", name)
	}
	return v, nil
}

type fakeMetrics struct {
	analyses map[string]int
	scores   map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{analyses: make(map[string]int), scores: make(map[string]float64)}
}

func (m *fakeMetrics) RecordAnalysis(kind string)                 { m.analyses[kind]++ }
func (m *fakeMetrics) RecordBiasScore(bias string, s float64)     { m.scores[bias] = s }
func (m *fakeMetrics) RecordTradesIngested(backend string, n int) {}
func (m *fakeMetrics) RecordError(kind string)                    {}
func (m *fakeMetrics) RecordLatency(op string, s float64)         {}

func testTrades() []models.Trade {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration, side models.Side, notional, pl float64) models.Trade {
		return models.Trade{
			TS:       base.Add(offset),
			Side:     side,
			Asset:    "AAPL",
			Notional: models.Float64Ptr(notional),
			PL:       models.Float64Ptr(pl),
		}
	}
	return []models.Trade{
		mk(0, models.SideBuy, 1000, 0),
		mk(30*time.Minute, models.SideSell, 1000, -50),
		mk(35*time.Minute, models.SideBuy, 1500, 0),
		mk(24*time.Hour, models.SideSell, 1500, 120),
	}
}

func TestAnalyzeFullReport(t *testing.T) {
	profiles := &fakeProfiles{vectors: map[string]models.StyleVector{
		"patient_value": {TradeFrequency: 0.05, HoldingPatience: 0.95, RiskReactivity: 0.05, Consistency: 0.9},
	}}
	m := newFakeMetrics()
	a := NewBehaviorAnalyzer(profiles, m)

	report, err := a.Analyze(context.Background(), AnalyzeInput{
		Trades:        testTrades(),
		TargetProfile: "patient_value",
		WithTimeline:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TradeCount != 4 {
		t.Fatalf("expected tradeCount 4, got %d", report.TradeCount)
	}
	if report.VectorSource != models.SourceBiasProxy {
		t.Fatalf("expected bias_proxy source, got %s", report.VectorSource)
	}
	if report.Alignment == nil {
		t.Fatalf("expected alignment result")
	}
	if report.Alignment.Score < 0 || report.Alignment.Score > 100 {
		t.Fatalf("alignment score out of range: %d", report.Alignment.Score)
	}
	if report.Profile != "patient_value" {
		t.Fatalf("expected profile name on report, got %q", report.Profile)
	}
	if report.Timeline == nil || len(report.Timeline.Points) != 4 {
		t.Fatalf("expected 4 timeline points")
	}
	if m.analyses["full"] != 1 {
		t.Fatalf("expected one full analysis recorded")
	}
	if _, ok := m.scores["overtrading"]; !ok {
		t.Fatalf("expected overtrading score recorded")
	}
}

func TestAnalyzeTraitScoresPreferred(t *testing.T) {
	a := NewBehaviorAnalyzer(&fakeProfiles{}, newFakeMetrics())

	report, err := a.Analyze(context.Background(), AnalyzeInput{
		Trades:      testTrades(),
		TraitScores: &models.TraitScores{TradeFrequency: 80, HoldingPatience: 20, RiskReactivity: 60, Consistency: 50},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.VectorSource != models.SourcePortfolioMetrics {
		t.Fatalf("expected portfolio_metrics source, got %s", report.VectorSource)
	}
	if report.Vector.TradeFrequency != 0.8 {
		t.Fatalf("expected trait score scaled to 0.8, got %v", report.Vector.TradeFrequency)
	}
}

func TestAnalyzeEmptyTrades(t *testing.T) {
	a := NewBehaviorAnalyzer(&fakeProfiles{}, newFakeMetrics())
	if _, err := a.Analyze(context.Background(), AnalyzeInput{}); err == nil {
		t.Fatalf("expected error for empty trades")
	}
}

func TestAnalyzeUnknownProfile(t *testing.T) {
	a := NewBehaviorAnalyzer(&fakeProfiles{}, newFakeMetrics())
	_, err := a.Analyze(context.Background(), AnalyzeInput{
		Trades:        testTrades(),
		TargetProfile: "nope",
	})
	if err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestAlignVector(t *testing.T) {
	profiles := &fakeProfiles{vectors: map[string]models.StyleVector{
		"active_scalper": {TradeFrequency: 0.9, HoldingPatience: 0.1, RiskReactivity: 0.6, Consistency: 0.5},
	}}
	a := NewBehaviorAnalyzer(profiles, newFakeMetrics())

	res, err := a.AlignVector(context.Background(), models.StyleVector{TradeFrequency: 0.9, HoldingPatience: 0.1, RiskReactivity: 0.6, Consistency: 0.5}, "active_scalper")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 100 {
		t.Fatalf("identical vectors should align at 100, got %d", res.Score)
	}
}

type fakeStore struct {
	stored map[string][]models.Trade
}

func (s *fakeStore) Init(context.Context) error { return nil }
func (s *fakeStore) Store(_ context.Context, sessionID string, t *models.Trade) error {
	s.stored[sessionID] = append(s.stored[sessionID], *t)
	return nil
}
func (s *fakeStore) StoreBatch(_ context.Context, sessionID string, trades []models.Trade) error {
	s.stored[sessionID] = append(s.stored[sessionID], trades...)
	return nil
}
func (s *fakeStore) BySession(_ context.Context, sessionID string, limit int) ([]models.Trade, error) {
	ts := s.stored[sessionID]
	if len(ts) > limit {
		ts = ts[:limit]
	}
	return ts, nil
}
func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

func TestIngestBatchClickHouseBackend(t *testing.T) {
	store := &fakeStore{stored: make(map[string][]models.Trade)}
	ing := NewTradeIngestor(nil, store, newFakeMetrics(), "clickhouse", 2, time.Second)

	if err := ing.IngestBatch(context.Background(), "s1", testTrades()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.stored["s1"]) != 4 {
		t.Fatalf("expected 4 stored trades, got %d", len(store.stored["s1"]))
	}

	got, err := ing.Trades(context.Background(), "s1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit to cap at 3, got %d", len(got))
	}
}

func TestIngestUnknownBackend(t *testing.T) {
	ing := NewTradeIngestor(nil, nil, newFakeMetrics(), "postgres", 0, 0)
	tr := testTrades()
	if err := ing.Ingest(context.Background(), "s1", &tr[0]); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
