package engine

import (
	"testing"
	"time"

	"TradeMirror/internal/domain/models"
)

var baseDay = time.Date(2024, 10, 10, 9, 30, 0, 0, time.UTC)

func tradeAt(ts time.Time) models.Trade {
	return models.Trade{TS: ts, Side: models.SideBuy}
}

func plTrade(ts time.Time, pl float64) models.Trade {
	return models.Trade{TS: ts, PL: models.Float64Ptr(pl)}
}

func TestOvertradingSingleDay(t *testing.T) {
	cases := []struct {
		count int
		want  int
	}{
		{5, 33},
		{15, 100},
		{30, 100},
	}
	for _, c := range cases {
		trades := make([]models.Trade, 0, c.count)
		for i := 0; i < c.count; i++ {
			trades = append(trades, tradeAt(baseDay.Add(time.Duration(i)*time.Minute)))
		}
		got := DetectBiases(trades).Overtrading.Score
		if got != c.want {
			t.Fatalf("count=%d: score=%d, want %d", c.count, got, c.want)
		}
	}
}

func TestOvertradingTwoDays(t *testing.T) {
	trades := make([]models.Trade, 0, 12)
	for i := 0; i < 2; i++ {
		trades = append(trades, tradeAt(baseDay.Add(time.Duration(i)*time.Minute)))
	}
	day2 := baseDay.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ {
		trades = append(trades, tradeAt(day2.Add(time.Duration(i)*time.Minute)))
	}

	res := DetectBiases(trades).Overtrading
	// median=6, max=10, ratio=10/6, score=round((ratio-1)*50)=33
	if res.Score != 33 {
		t.Fatalf("score=%d, want 33", res.Score)
	}
}

func TestOvertradingSpikeEvidence(t *testing.T) {
	trades := []models.Trade{
		tradeAt(baseDay),
		tradeAt(baseDay.AddDate(0, 0, 1)),
	}
	day3 := baseDay.AddDate(0, 0, 2)
	for i := 0; i < 10; i++ {
		trades = append(trades, tradeAt(day3.Add(time.Duration(i)*time.Minute)))
	}

	res := DetectBiases(trades).Overtrading
	// median=1, max=10, ratio=10 -> clamp to 100
	if res.Score != 100 {
		t.Fatalf("score=%d, want 100", res.Score)
	}
	// only the 10-trade day clears ceil(median*2)=2
	if len(res.Evidence) != 1 || res.Evidence[0].Count != 10 {
		t.Fatalf("unexpected evidence %+v", res.Evidence)
	}
	if res.Evidence[0].Baseline != 1 {
		t.Fatalf("baseline=%v, want 1", res.Evidence[0].Baseline)
	}
}

func TestOvertradingEmpty(t *testing.T) {
	res := DetectBiases(nil).Overtrading
	if res.Score != 0 {
		t.Fatalf("score=%d, want 0", res.Score)
	}
}

func TestRevengeInsufficientData(t *testing.T) {
	trades := []models.Trade{
		tradeAt(baseDay),
		tradeAt(baseDay.Add(time.Minute)),
	}
	res := DetectBiases(trades).Revenge
	if !res.InsufficientData {
		t.Fatalf("expected insufficientData")
	}
	if res.Score != 0 {
		t.Fatalf("score=%d, want 0", res.Score)
	}
}

func TestRevengeTrigger(t *testing.T) {
	loss := plTrade(baseDay, -100)
	loss.Notional = models.Float64Ptr(1000)
	next := models.Trade{TS: baseDay.Add(5 * time.Minute), Side: models.SideBuy, Notional: models.Float64Ptr(1200)}
	calm := models.Trade{TS: baseDay.Add(2 * time.Hour), PL: models.Float64Ptr(50)}

	res := DetectBiases([]models.Trade{loss, next, calm}).Revenge
	if res.InsufficientData {
		t.Fatalf("did not expect insufficientData")
	}
	// one loss, one trigger -> 100
	if res.Score != 100 {
		t.Fatalf("score=%d, want 100", res.Score)
	}
	if len(res.Evidence) != 1 {
		t.Fatalf("evidence=%d, want 1", len(res.Evidence))
	}
	if !res.Evidence[0].SizedUp {
		t.Fatalf("expected size-up: 1200 > 1000*1.15")
	}
}

func TestRevengeOutsideWindow(t *testing.T) {
	loss := plTrade(baseDay, -100)
	next := tradeAt(baseDay.Add(11 * time.Minute))
	res := DetectBiases([]models.Trade{loss, next}).Revenge
	if res.Score != 0 {
		t.Fatalf("score=%d, want 0 for gap > 10m", res.Score)
	}
}

func TestOvertradingHourlyStats(t *testing.T) {
	// 09:30 x3 and 11:30 x1: span covers hours 09:00 through 12:00 inclusive,
	// so 4 hourly buckets, 4 trades, avg 1.0; the busiest hour holds 3.
	trades := []models.Trade{
		tradeAt(baseDay),
		tradeAt(baseDay.Add(10 * time.Minute)),
		tradeAt(baseDay.Add(20 * time.Minute)),
		tradeAt(baseDay.Add(2 * time.Hour)),
	}
	res := DetectBiases(trades).Overtrading
	if res.AvgTradesPerHour == nil {
		t.Fatalf("expected hourly average")
	}
	if *res.AvgTradesPerHour != 1.0 {
		t.Fatalf("avg=%v, want 1.0", *res.AvgTradesPerHour)
	}
	if res.MaxTradesInOneHour != 3 {
		t.Fatalf("max=%d, want 3", res.MaxTradesInOneHour)
	}
}

func TestOvertradingHourlyStatsNoTimestamps(t *testing.T) {
	trades := []models.Trade{{Side: models.SideBuy}, {Side: models.SideSell}}
	res := DetectBiases(trades).Overtrading
	if res.AvgTradesPerHour != nil {
		t.Fatalf("expected nil hourly average, got %v", *res.AvgTradesPerHour)
	}
	if res.MaxTradesInOneHour != 0 {
		t.Fatalf("max=%d, want 0", res.MaxTradesInOneHour)
	}
}

func TestRevengeTradeValueRatio(t *testing.T) {
	// values 1000 (loss), 3000, 2000: overall mean 2000, after-loss mean 3000.
	// The follow-up is an hour out, so it never triggers the revenge window but
	// still feeds the value ratio.
	loss := plTrade(baseDay, -100)
	loss.Notional = models.Float64Ptr(1000)
	next := models.Trade{TS: baseDay.Add(time.Hour), Side: models.SideBuy, Notional: models.Float64Ptr(3000)}
	calm := models.Trade{TS: baseDay.Add(2 * time.Hour), Side: models.SideBuy, Notional: models.Float64Ptr(2000)}

	res := DetectBiases([]models.Trade{loss, next, calm}).Revenge
	if res.Score != 0 {
		t.Fatalf("score=%d, want 0 for gap > 10m", res.Score)
	}
	if res.TradeValueRatio == nil {
		t.Fatalf("expected trade value ratio")
	}
	if *res.TradeValueRatio != 1.5 {
		t.Fatalf("ratio=%v, want 1.5", *res.TradeValueRatio)
	}
}

func TestRevengeTradeValueRatioNoFollowUp(t *testing.T) {
	// the only loss is the final trade, so nothing follows it
	win := plTrade(baseDay, 50)
	win.Notional = models.Float64Ptr(1000)
	loss := plTrade(baseDay.Add(time.Hour), -50)
	loss.Notional = models.Float64Ptr(1000)

	res := DetectBiases([]models.Trade{win, loss}).Revenge
	if res.TradeValueRatio != nil {
		t.Fatalf("ratio=%v, want nil", *res.TradeValueRatio)
	}
}

func TestMartingaleRatioExactStreak(t *testing.T) {
	sized := func(ts time.Time, notional float64, pl *float64) models.Trade {
		return models.Trade{TS: ts, Side: models.SideBuy, Notional: models.Float64Ptr(notional), PL: pl}
	}

	trades := []models.Trade{
		sized(baseDay, 100, models.Float64Ptr(10)), // prior streak 0
	}
	for i := 1; i <= 6; i++ { // six consecutive losses; the first has prior streak 0
		trades = append(trades, sized(baseDay.Add(time.Duration(i)*time.Minute), 100, models.Float64Ptr(-10)))
	}
	// prior streak exactly 6: the martingale bucket. This one loses too,
	// pushing the streak to 7, so the trade after it stays out of the bucket.
	trades = append(trades, sized(baseDay.Add(7*time.Minute), 300, models.Float64Ptr(-10)))
	trades = append(trades, sized(baseDay.Add(8*time.Minute), 900, nil))

	res := DetectBiases(trades).Revenge
	if res.MartingaleRatio == nil {
		t.Fatalf("expected martingale ratio")
	}
	// baseline mean (100+100)/2 = 100, streak-6 mean 300
	if *res.MartingaleRatio != 3.0 {
		t.Fatalf("ratio=%v, want 3.0", *res.MartingaleRatio)
	}
}

func TestMartingaleRatioNoStreak(t *testing.T) {
	trades := []models.Trade{
		{TS: baseDay, Notional: models.Float64Ptr(100), PL: models.Float64Ptr(-10)},
		{TS: baseDay.Add(time.Minute), Notional: models.Float64Ptr(100), PL: models.Float64Ptr(10)},
	}
	res := DetectBiases(trades).Revenge
	if res.MartingaleRatio != nil {
		t.Fatalf("ratio=%v, want nil without a 6-loss streak", *res.MartingaleRatio)
	}
}

func TestLossAversionBreakpoints(t *testing.T) {
	cases := []struct {
		ratio float64
		want  int
	}{
		{1.0, 0},
		{1.05, 0},
		{1.5, 30},
		{2.0, 60},
		{2.5, 85},
		{3.0, 85},
		{10, 100},
	}
	for _, c := range cases {
		if got := lossAversionScore(c.ratio); got != c.want {
			t.Fatalf("ratio=%v: score=%d, want %d", c.ratio, got, c.want)
		}
	}
}

func TestLossAversionFromTrades(t *testing.T) {
	// avgWin=100, avgLoss=150 -> ratio=1.5 -> 30
	trades := []models.Trade{
		plTrade(baseDay, 100),
		plTrade(baseDay.Add(time.Hour), -150),
	}
	res := DetectBiases(trades).LossAversion
	if res.Score != 30 {
		t.Fatalf("score=%d, want 30", res.Score)
	}
	if res.Evidence == nil || res.Evidence.Ratio != 1.5 {
		t.Fatalf("unexpected evidence %+v", res.Evidence)
	}
}

func TestLossAversionSentinel(t *testing.T) {
	trades := []models.Trade{
		plTrade(baseDay, -10),
		plTrade(baseDay.Add(time.Hour), -20),
	}
	res := DetectBiases(trades).LossAversion
	if res.Score != 100 {
		t.Fatalf("score=%d, want 100 for all-loss set", res.Score)
	}
	if res.Evidence.Ratio != ratioSentinel {
		t.Fatalf("ratio=%v, want sentinel", res.Evidence.Ratio)
	}
}

func TestDetectBiasesDeterministic(t *testing.T) {
	trades := []models.Trade{
		plTrade(baseDay, -100),
		tradeAt(baseDay.Add(3 * time.Minute)),
		plTrade(baseDay.Add(time.Hour), 40),
		tradeAt(baseDay.AddDate(0, 0, 1)),
	}
	a := DetectBiases(trades)
	b := DetectBiases(trades)
	if a.Overtrading.Score != b.Overtrading.Score ||
		a.Revenge.Score != b.Revenge.Score ||
		a.LossAversion.Score != b.LossAversion.Score {
		t.Fatalf("two runs disagree: %+v vs %+v", a, b)
	}
}

func TestScoresAlwaysInRange(t *testing.T) {
	sets := [][]models.Trade{
		nil,
		{tradeAt(baseDay)},
		{plTrade(baseDay, -1e12), plTrade(baseDay.Add(time.Second), -1e12)},
	}
	for _, trades := range sets {
		r := DetectBiases(trades)
		for _, s := range []int{r.Overtrading.Score, r.Revenge.Score, r.LossAversion.Score} {
			if s < 0 || s > 100 {
				t.Fatalf("score %d out of range", s)
			}
		}
	}
}
