package engine

import (
	"math"
	"sort"
	"time"

	"TradeMirror/internal/domain/models"
)

// Bias detection thresholds. These are the comparability contract with
// historical outputs: do not tune without versioning the results.
const (
	singleDayFullScore  = 15.0 // trades in one day that map to score 100
	revengeWindowSecs   = 600.0
	revengeSizeUpFactor = 1.15
	martingaleStreak    = 6
	ratioSentinel       = 999.0
)

// DetectBiases runs the three bias sub-analyses over one ordered trade
// sequence. The sub-analyses are independent but share a single day-bucketing
// pass. Deterministic: same input, bit-identical output.
func DetectBiases(trades []models.Trade) models.BiasResult {
	ordered := sortedByTS(trades)
	counts := dayCounts(ordered)
	return models.BiasResult{
		Overtrading:  detectOvertrading(ordered, counts),
		Revenge:      detectRevenge(ordered),
		LossAversion: detectLossAversion(ordered),
	}
}

func detectOvertrading(ordered []models.Trade, counts map[string]int) models.OvertradingBias {
	avgHour, maxHour := hourlyStats(ordered)
	if len(counts) == 0 {
		return models.OvertradingBias{Score: 0, Evidence: []models.OvertradingEvidence{}, AvgTradesPerHour: avgHour, MaxTradesInOneHour: maxHour}
	}

	if len(counts) == 1 {
		var day string
		var count int
		for d, c := range counts {
			day, count = d, c
		}
		score := clampScore(float64(count) / singleDayFullScore * 100)
		ev := []models.OvertradingEvidence{}
		if score > 0 {
			ev = append(ev, models.OvertradingEvidence{Day: day, Count: count, Baseline: float64(count)})
		}
		return models.OvertradingBias{Score: score, Evidence: ev, AvgTradesPerHour: avgHour, MaxTradesInOneHour: maxHour}
	}

	perDay := countsSlice(counts)
	med := Median(perDay)
	maxCount := 0.0
	for _, c := range perDay {
		if c > maxCount {
			maxCount = c
		}
	}

	ratio := maxCount
	if med > 0 {
		ratio = maxCount / med
	}
	score := clampScore((ratio - 1) * 50)

	threshold := math.Ceil(med * 2)
	evidence := []models.OvertradingEvidence{}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		if float64(counts[d]) >= threshold {
			evidence = append(evidence, models.OvertradingEvidence{Day: d, Count: counts[d], Baseline: med})
		}
	}
	return models.OvertradingBias{Score: score, Evidence: evidence, AvgTradesPerHour: avgHour, MaxTradesInOneHour: maxHour}
}

// hourlyStats buckets timestamped trades into wall-clock hours spanning the
// full sequence, empty hours included. The span runs from the first trade's
// hour through the hour after the last trade, matching an inclusive
// floor-to-ceil hourly range.
func hourlyStats(ordered []models.Trade) (*float64, int) {
	var first, last time.Time
	perHour := make(map[time.Time]int)
	total := 0
	for i := range ordered {
		if !ordered[i].HasTS() {
			continue
		}
		ts := ordered[i].TS.UTC()
		if total == 0 || ts.Before(first) {
			first = ts
		}
		if total == 0 || ts.After(last) {
			last = ts
		}
		perHour[ts.Truncate(time.Hour)]++
		total++
	}
	if total == 0 {
		return nil, 0
	}

	start := first.Truncate(time.Hour)
	end := last.Truncate(time.Hour)
	if !end.Equal(last) {
		end = end.Add(time.Hour)
	}
	hours := int(end.Sub(start)/time.Hour) + 1

	maxC := 0
	for _, c := range perHour {
		if c > maxC {
			maxC = c
		}
	}
	avg := float64(total) / float64(hours)
	return &avg, maxC
}

// detectRevenge counts losses followed by another trade within the revenge
// window, recording whether the follow-up sized up by more than 15%. Trades
// must be ordered by ts ascending.
func detectRevenge(ordered []models.Trade) models.RevengeBias {
	if !anyRealizedPL(ordered) {
		return models.RevengeBias{Score: 0, Evidence: []models.RevengeEvidence{}, InsufficientData: true}
	}

	evidence := []models.RevengeEvidence{}
	lossCount := 0
	triggers := 0
	for i := range ordered {
		pl, ok := ordered[i].RealizedPL()
		if !ok || pl >= 0 {
			continue
		}
		lossCount++
		if i+1 >= len(ordered) {
			continue
		}
		next := &ordered[i+1]
		if !ordered[i].HasTS() || !next.HasTS() {
			continue
		}
		gap := next.TS.Sub(ordered[i].TS).Seconds()
		if gap < 0 || gap > revengeWindowSecs {
			continue
		}
		triggers++
		sizedUp := false
		if lossVal, ok1 := ordered[i].NotionalValue(); ok1 {
			if nextVal, ok2 := next.NotionalValue(); ok2 {
				sizedUp = nextVal > lossVal*revengeSizeUpFactor
			}
		}
		evidence = append(evidence, models.RevengeEvidence{
			LossAt:     ordered[i].TS,
			NextAt:     next.TS,
			GapSeconds: gap,
			LossPL:     pl,
			SizedUp:    sizedUp,
		})
	}

	denom := lossCount
	if denom < 1 {
		denom = 1
	}
	score := clampScore(float64(triggers) / float64(denom) * 100)
	return models.RevengeBias{
		Score:           score,
		Evidence:        evidence,
		TradeValueRatio: tradeValueRatio(ordered),
		MartingaleRatio: martingaleRatio(ordered),
	}
}

// tradeValueRatio compares the mean value of trades placed immediately after a
// loss (the next trade in sequence, any time gap) against the mean value of
// all trades. Nil when no loss has a follow-up or the overall mean is zero.
func tradeValueRatio(ordered []models.Trade) *float64 {
	var allSum, allN, afterSum, afterN float64
	for i := range ordered {
		if v, ok := ordered[i].NotionalValue(); ok {
			allSum += v
			allN++
		}
		if pl, ok := ordered[i].RealizedPL(); ok && pl < 0 && i+1 < len(ordered) {
			if v, ok := ordered[i+1].NotionalValue(); ok {
				afterSum += v
				afterN++
			}
		}
	}
	if afterN == 0 || allN == 0 || allSum == 0 {
		return nil
	}
	r := (afterSum / afterN) / (allSum / allN)
	return &r
}

// martingaleRatio compares mean trade value after a streak of exactly
// martingaleStreak consecutive losses against mean trade value after no
// losses. Longer streaks fall outside the numerator bucket. Nil when the
// trade set never reaches such a streak.
func martingaleRatio(ordered []models.Trade) *float64 {
	var baseSum, baseN, streakSum, streakN float64
	streak := 0
	for i := range ordered {
		prev := streak
		if pl, ok := ordered[i].RealizedPL(); ok && pl < 0 {
			streak++
		} else {
			streak = 0
		}
		v, ok := ordered[i].NotionalValue()
		if !ok {
			continue
		}
		switch {
		case prev == 0:
			baseSum += v
			baseN++
		case prev == martingaleStreak:
			streakSum += v
			streakN++
		}
	}
	if baseN == 0 || streakN == 0 || baseSum <= 0 {
		return nil
	}
	r := (streakSum / streakN) / (baseSum / baseN)
	return &r
}

func detectLossAversion(ordered []models.Trade) models.LossAversionBias {
	if !anyRealizedPL(ordered) {
		return models.LossAversionBias{Score: 0, InsufficientData: true}
	}

	var wins, losses []float64
	for i := range ordered {
		pl, ok := ordered[i].RealizedPL()
		if !ok {
			continue
		}
		if pl > 0 {
			wins = append(wins, pl)
		} else if pl < 0 {
			losses = append(losses, -pl)
		}
	}

	avgWin := Mean(wins)
	avgLoss := Mean(losses)

	var ratio float64
	switch {
	case avgLoss == 0:
		ratio = 0
	case avgWin == 0:
		ratio = ratioSentinel
	default:
		ratio = avgLoss / avgWin
	}

	return models.LossAversionBias{
		Score: lossAversionScore(ratio),
		Evidence: &models.LossAversionEvidence{
			AvgWin:  avgWin,
			AvgLoss: avgLoss,
			Ratio:   ratio,
			Wins:    len(wins),
			Losses:  len(losses),
		},
	}
}

// lossAversionScore is a step function over the disposition ratio. The exact
// breakpoints are load-bearing for comparability with stored reference data.
func lossAversionScore(ratio float64) int {
	switch {
	case ratio <= 1.05:
		return 0
	case ratio <= 1.5:
		return 30
	case ratio <= 2.0:
		return 60
	case ratio <= 3.0:
		return 85
	default:
		return 100
	}
}

func anyRealizedPL(trades []models.Trade) bool {
	for i := range trades {
		if _, ok := trades[i].RealizedPL(); ok {
			return true
		}
	}
	return false
}
