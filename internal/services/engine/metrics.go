package engine

import (
	"TradeMirror/internal/domain/models"
)

// Fixed scale constants for metric normalization. Changing these changes every
// stored normalized score, so they are deliberately not configurable.
const (
	scaleTradeFrequency  = 20.0
	scaleAvgTradeSize    = 5000.0
	scaleHoldingDays     = 90.0
	scaleSizeVariability = 5000.0
	daysPerWeek          = 7.0
	daysPerMonth         = 30.0
	secondsPerDay        = 86400.0
)

// ComputeUserMetrics derives raw behavioral statistics from a trade sequence.
// Trades without a parseable timestamp are excluded from day bucketing but not
// from the pct_trades_after_loss denominator; that asymmetry matches the
// engine's historical outputs and downstream consumers depend on it.
func ComputeUserMetrics(trades []models.Trade) models.UserMetrics {
	var m models.UserMetrics
	if len(trades) == 0 {
		return m
	}

	counts := dayCounts(trades)
	perDay := countsSlice(counts)
	m.TradeFrequency = Mean(perDay)
	if days := len(perDay); days > 0 {
		total := 0.0
		for _, c := range perDay {
			total += c
		}
		span := float64(days)
		m.AvgTradesPerWeek = total / span * daysPerWeek
		m.AvgTradesPerMonth = total / span * daysPerMonth
	}

	sizes := make([]float64, 0, len(trades))
	for i := range trades {
		if v, ok := trades[i].NotionalValue(); ok && v > 0 {
			sizes = append(sizes, v)
		}
	}
	m.AvgTradeSize = Mean(sizes)
	m.TradeSizeVariability = PopStdDev(sizes)

	m.PctTradesAfterLoss = pctTradesAfterLoss(trades)
	m.AvgHoldingPeriodDays = avgHoldingPeriodDays(trades)
	return m
}

// pctTradesAfterLoss returns nil unless at least two trades carry a finite
// P/L. The numerator counts losses among all-but-last trades; the denominator
// is len(trades)-1 over the original slice, unfiltered.
func pctTradesAfterLoss(trades []models.Trade) *float64 {
	withPL := 0
	for i := range trades {
		if _, ok := trades[i].RealizedPL(); ok {
			withPL++
		}
	}
	if withPL < 2 || len(trades) < 2 {
		return nil
	}
	losses := 0
	for i := 0; i < len(trades)-1; i++ {
		if pl, ok := trades[i].RealizedPL(); ok && pl < 0 {
			losses++
		}
	}
	pct := float64(losses) / float64(len(trades)-1)
	return &pct
}

type lot struct {
	ts  float64 // unix seconds
	qty float64
}

// avgHoldingPeriodDays matches sells against buys FIFO per asset. Each
// (sell, lot) match event contributes one sample of (sellTs - lotTs) in days;
// a sell with no open lots contributes nothing. Returns nil when no SELL
// exists or nothing ever matched.
func avgHoldingPeriodDays(trades []models.Trade) *float64 {
	hasSell := false
	for i := range trades {
		if trades[i].Side == models.SideSell {
			hasSell = true
			break
		}
	}
	if !hasSell {
		return nil
	}

	ordered := sortedByTS(trades)
	lots := make(map[string][]lot)
	var samples []float64

	for i := range ordered {
		t := &ordered[i]
		if !t.HasTS() || t.Asset == "" {
			continue
		}
		qty, ok := t.Quantity()
		if !ok {
			continue
		}
		ts := float64(t.TS.UnixNano()) / 1e9

		switch t.Side {
		case models.SideBuy:
			lots[t.Asset] = append(lots[t.Asset], lot{ts: ts, qty: qty})
		case models.SideSell:
			queue := lots[t.Asset]
			remaining := qty
			for remaining > 0 && len(queue) > 0 {
				l := &queue[0]
				used := remaining
				if l.qty < used {
					used = l.qty
				}
				samples = append(samples, (ts-l.ts)/secondsPerDay)
				l.qty -= used
				remaining -= used
				if l.qty <= 1e-9 {
					queue = queue[1:]
				}
			}
			lots[t.Asset] = queue
		}
	}

	if len(samples) == 0 {
		return nil
	}
	avg := Mean(samples)
	return &avg
}

// NormalizeMetrics maps raw metrics into [0,1] traits using the fixed scale
// constants. Nil stays nil: "no data" is not "zero".
func NormalizeMetrics(m models.UserMetrics) models.NormalizedMetrics {
	n := models.NormalizedMetrics{
		TradeFrequency:       Clamp01(m.TradeFrequency / scaleTradeFrequency),
		AvgTradeSize:         Clamp01(m.AvgTradeSize / scaleAvgTradeSize),
		TradeSizeVariability: Clamp01(m.TradeSizeVariability / scaleSizeVariability),
	}
	if m.PctTradesAfterLoss != nil {
		v := Clamp01(*m.PctTradesAfterLoss)
		n.PctTradesAfterLoss = &v
	}
	if m.AvgHoldingPeriodDays != nil {
		v := Clamp01(*m.AvgHoldingPeriodDays / scaleHoldingDays)
		n.AvgHoldingPeriodDays = &v
	}
	return n
}
