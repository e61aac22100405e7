package engine

import (
	"testing"
	"time"

	"TradeMirror/internal/domain/models"
)

func TestTimelineBasisSelection(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	withPL := []models.Trade{
		{TS: start, PL: models.Float64Ptr(10)},
		{TS: start.Add(time.Hour), PL: models.Float64Ptr(-5)},
		{TS: start.Add(2 * time.Hour)},
	}
	if got := BuildTimeline(withPL).Basis; got != models.BasisPL {
		t.Fatalf("basis=%s, want pl", got)
	}

	withoutPL := []models.Trade{
		{TS: start, Notional: models.Float64Ptr(100)},
		{TS: start.Add(time.Hour), Notional: models.Float64Ptr(200)},
		{TS: start.Add(2 * time.Hour), PL: models.Float64Ptr(1)},
	}
	if got := BuildTimeline(withoutPL).Basis; got != models.BasisNotional {
		t.Fatalf("basis=%s, want notional", got)
	}
}

func TestTimelineCumulative(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{TS: start.Add(time.Hour), PL: models.Float64Ptr(-5)}, // out of order on purpose
		{TS: start, PL: models.Float64Ptr(10)},
	}
	tl := BuildTimeline(trades)
	if len(tl.Points) != 2 {
		t.Fatalf("points=%d, want 2", len(tl.Points))
	}
	if tl.Points[0].CumulativeValue != 10 {
		t.Fatalf("first cumulative=%v, want 10", tl.Points[0].CumulativeValue)
	}
	if tl.Points[1].CumulativeValue != 5 {
		t.Fatalf("second cumulative=%v, want 5", tl.Points[1].CumulativeValue)
	}
}

func TestTimelineBiasMarkers(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{TS: start, PL: models.Float64Ptr(-100), Side: models.SideSell, Asset: "TSLA"},
		// loss 5 minutes after a loss, selling: panic sell
		{TS: start.Add(5 * time.Minute), PL: models.Float64Ptr(-200), Side: models.SideSell, Asset: "TSLA"},
		// loss 5 minutes after a loss, buying: revenge
		{TS: start.Add(10 * time.Minute), PL: models.Float64Ptr(-50), Side: models.SideBuy, Asset: "TSLA"},
		{TS: start.Add(3 * time.Hour), PL: models.Float64Ptr(300)},
	}
	tl := BuildTimeline(trades)
	if len(tl.BiasMarkers) != 3 {
		t.Fatalf("markers=%d, want 3", len(tl.BiasMarkers))
	}
	byPL := map[float64]string{}
	for _, m := range tl.BiasMarkers {
		byPL[m.PL] = m.Label
	}
	if byPL[-200] != models.MarkerPanicSell {
		t.Fatalf("label for -200 = %q, want panic sell", byPL[-200])
	}
	if byPL[-50] != models.MarkerRevenge {
		t.Fatalf("label for -50 = %q, want revenge", byPL[-50])
	}
}

func TestTimelineTradeMarkers(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := make([]models.Trade, 0, 10)
	for i := 0; i < 5; i++ {
		n := float64((i + 1) * 100)
		trades = append(trades, models.Trade{TS: start.Add(time.Duration(i) * time.Minute), Side: models.SideBuy, Notional: &n})
	}
	for i := 0; i < 5; i++ {
		n := float64((i + 1) * 10)
		trades = append(trades, models.Trade{TS: start.Add(time.Duration(5+i) * time.Minute), Side: models.SideSell, Notional: &n})
	}
	tl := BuildTimeline(trades)
	buys, sells := 0, 0
	for _, m := range tl.TradeMarkers {
		switch m.Kind {
		case "largest_buy":
			buys++
			if m.Notional < 300 {
				t.Fatalf("buy marker %v not among top-3", m.Notional)
			}
		case "largest_sell":
			sells++
		}
	}
	if buys != 3 || sells != 3 {
		t.Fatalf("buys=%d sells=%d, want 3 and 3", buys, sells)
	}
}
