package engine

import (
	"math"
	"testing"
	"time"

	"TradeMirror/internal/domain/models"
)

func buy(ts time.Time, asset string, qty float64) models.Trade {
	return models.Trade{TS: ts, Side: models.SideBuy, Asset: asset, Qty: models.Float64Ptr(qty)}
}

func sell(ts time.Time, asset string, qty float64) models.Trade {
	return models.Trade{TS: ts, Side: models.SideSell, Asset: asset, Qty: models.Float64Ptr(qty)}
}

func TestHoldingPeriodFullMatch(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		buy(start, "AAPL", 10),
		sell(start.AddDate(0, 0, 5), "AAPL", 10),
	}
	m := ComputeUserMetrics(trades)
	if m.AvgHoldingPeriodDays == nil {
		t.Fatalf("expected holding period")
	}
	if *m.AvgHoldingPeriodDays != 5.0 {
		t.Fatalf("holding=%v, want 5.0", *m.AvgHoldingPeriodDays)
	}
}

func TestHoldingPeriodPartialMatch(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		buy(start, "AAPL", 10),
		sell(start.AddDate(0, 0, 2), "AAPL", 4),
		sell(start.AddDate(0, 0, 6), "AAPL", 6),
	}
	m := ComputeUserMetrics(trades)
	if m.AvgHoldingPeriodDays == nil {
		t.Fatalf("expected holding period")
	}
	// two samples against the same originating lot: (2+6)/2
	if *m.AvgHoldingPeriodDays != 4.0 {
		t.Fatalf("holding=%v, want 4.0", *m.AvgHoldingPeriodDays)
	}
}

func TestHoldingPeriodNoSell(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m := ComputeUserMetrics([]models.Trade{buy(start, "AAPL", 10)})
	if m.AvgHoldingPeriodDays != nil {
		t.Fatalf("expected nil without a SELL, got %v", *m.AvgHoldingPeriodDays)
	}
}

func TestHoldingPeriodUnmatchedSell(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	// sell with no open lots contributes no sample, not an error
	m := ComputeUserMetrics([]models.Trade{sell(start, "AAPL", 10)})
	if m.AvgHoldingPeriodDays != nil {
		t.Fatalf("expected nil for unmatched sell")
	}
}

func TestPctTradesAfterLoss(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{TS: start, PL: models.Float64Ptr(-50)},
		{TS: start.Add(time.Hour), PL: models.Float64Ptr(20)},
		{TS: start.Add(2 * time.Hour), PL: models.Float64Ptr(-10)},
		{TS: start.Add(3 * time.Hour), PL: models.Float64Ptr(5)},
	}
	m := ComputeUserMetrics(trades)
	if m.PctTradesAfterLoss == nil {
		t.Fatalf("expected pct_trades_after_loss")
	}
	// 2 losses among first 3 trades / (4-1)
	want := 2.0 / 3.0
	if math.Abs(*m.PctTradesAfterLoss-want) > 1e-12 {
		t.Fatalf("pct=%v, want %v", *m.PctTradesAfterLoss, want)
	}
}

func TestPctTradesAfterLossUnmeasurable(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{TS: start},
		{TS: start.Add(time.Hour), PL: models.Float64Ptr(-10)},
	}
	m := ComputeUserMetrics(trades)
	if m.PctTradesAfterLoss != nil {
		t.Fatalf("expected nil with fewer than 2 finite-P/L trades")
	}
}

func TestTradeFrequency(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{TS: start},
		{TS: start.Add(time.Hour)},
		{TS: start.AddDate(0, 0, 1)},
	}
	m := ComputeUserMetrics(trades)
	// per-day counts [2,1] -> mean 1.5
	if m.TradeFrequency != 1.5 {
		t.Fatalf("frequency=%v, want 1.5", m.TradeFrequency)
	}
}

func TestTradeSizeStats(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{TS: start, Notional: models.Float64Ptr(100)},
		{TS: start.Add(time.Hour), Notional: models.Float64Ptr(300)},
		{TS: start.Add(2 * time.Hour), Notional: models.Float64Ptr(-50)}, // non-positive, excluded
		{TS: start.Add(3 * time.Hour)},                                   // nil, excluded
	}
	m := ComputeUserMetrics(trades)
	if m.AvgTradeSize != 200 {
		t.Fatalf("avg=%v, want 200", m.AvgTradeSize)
	}
	// population stddev of [100,300] = 100
	if m.TradeSizeVariability != 100 {
		t.Fatalf("stddev=%v, want 100", m.TradeSizeVariability)
	}
}

func TestNormalizeMetricsClamps(t *testing.T) {
	hold := 900.0
	pct := 0.4
	m := models.UserMetrics{
		TradeFrequency:       200,
		AvgTradeSize:         10000000,
		TradeSizeVariability: 123,
		PctTradesAfterLoss:   &pct,
		AvgHoldingPeriodDays: &hold,
	}
	n := NormalizeMetrics(m)
	if n.TradeFrequency != 1 || n.AvgTradeSize != 1 {
		t.Fatalf("expected clamp to 1, got %+v", n)
	}
	if n.TradeSizeVariability != 123.0/5000.0 {
		t.Fatalf("variability=%v", n.TradeSizeVariability)
	}
	if n.PctTradesAfterLoss == nil || *n.PctTradesAfterLoss != 0.4 {
		t.Fatalf("pct should pass through")
	}
	if n.AvgHoldingPeriodDays == nil || *n.AvgHoldingPeriodDays != 1 {
		t.Fatalf("holding should clamp to 1")
	}
}

func TestNormalizeMetricsNilPropagates(t *testing.T) {
	n := NormalizeMetrics(models.UserMetrics{})
	if n.PctTradesAfterLoss != nil || n.AvgHoldingPeriodDays != nil {
		t.Fatalf("nil must propagate, got %+v", n)
	}
}

func TestComputeUserMetricsIdempotent(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		buy(start, "AAPL", 10),
		sell(start.AddDate(0, 0, 5), "AAPL", 10),
		{TS: start.Add(time.Hour), PL: models.Float64Ptr(-10), Notional: models.Float64Ptr(50)},
		{TS: start.Add(2 * time.Hour), PL: models.Float64Ptr(30)},
	}
	a := ComputeUserMetrics(trades)
	b := ComputeUserMetrics(trades)
	if a.TradeFrequency != b.TradeFrequency || a.AvgTradeSize != b.AvgTradeSize {
		t.Fatalf("two runs disagree")
	}
	// the input slice order must be untouched
	if !trades[0].TS.Equal(start) || trades[1].Side != models.SideSell {
		t.Fatalf("input slice was mutated")
	}
}
