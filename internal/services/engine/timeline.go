package engine

import (
	"math"
	"sort"

	"TradeMirror/internal/domain/models"
)

const (
	worstLossMarkers    = 5
	topTradeMarkers     = 3
	priorLossWindowSecs = 900.0
)

// BuildTimeline projects a trade sequence into a chart-ready cumulative series
// plus marker sets. The cumulative value runs over realized P/L when a
// majority of trades carry one, otherwise over notional. Presentation shaping
// only: no scores are produced here.
func BuildTimeline(trades []models.Trade) models.Timeline {
	ordered := sortedByTS(trades)

	withPL := 0
	for i := range ordered {
		if _, ok := ordered[i].RealizedPL(); ok {
			withPL++
		}
	}
	basis := models.BasisNotional
	if withPL*2 > len(ordered) {
		basis = models.BasisPL
	}

	points := make([]models.TimelinePoint, 0, len(ordered))
	cum := 0.0
	for i := range ordered {
		t := &ordered[i]
		v := 0.0
		if basis == models.BasisPL {
			if pl, ok := t.RealizedPL(); ok {
				v = pl
			}
		} else {
			if n, ok := t.NotionalValue(); ok {
				v = math.Abs(n)
			}
		}
		cum += v
		points = append(points, models.TimelinePoint{
			TS:              t.TS,
			CumulativeValue: cum,
			TradeValue:      v,
			Asset:           t.Asset,
			Side:            t.Side,
		})
	}

	return models.Timeline{
		Basis:        basis,
		Points:       points,
		BiasMarkers:  worstLossBiasMarkers(ordered),
		TradeMarkers: largestTradeMarkers(ordered),
	}
}

// worstLossBiasMarkers classifies the worst-loss trades heuristically by side
// and whether the immediately preceding trade was also a loss within the
// prior-loss window.
func worstLossBiasMarkers(ordered []models.Trade) []models.BiasMarker {
	type lossAt struct {
		idx int
		pl  float64
	}
	losses := make([]lossAt, 0)
	for i := range ordered {
		if pl, ok := ordered[i].RealizedPL(); ok && pl < 0 {
			losses = append(losses, lossAt{idx: i, pl: pl})
		}
	}
	sort.SliceStable(losses, func(i, j int) bool { return losses[i].pl < losses[j].pl })
	if len(losses) > worstLossMarkers {
		losses = losses[:worstLossMarkers]
	}

	markers := make([]models.BiasMarker, 0, len(losses))
	for _, l := range losses {
		t := &ordered[l.idx]
		markers = append(markers, models.BiasMarker{
			TS:    t.TS,
			Asset: t.Asset,
			Side:  t.Side,
			PL:    l.pl,
			Label: classifyLoss(ordered, l.idx),
		})
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].TS.Before(markers[j].TS) })
	return markers
}

func classifyLoss(ordered []models.Trade, idx int) string {
	t := &ordered[idx]
	afterLoss := false
	if idx > 0 {
		prev := &ordered[idx-1]
		if pl, ok := prev.RealizedPL(); ok && pl < 0 && prev.HasTS() && t.HasTS() {
			gap := t.TS.Sub(prev.TS).Seconds()
			afterLoss = gap >= 0 && gap <= priorLossWindowSecs
		}
	}
	switch {
	case afterLoss && t.Side == models.SideSell:
		return models.MarkerPanicSell
	case afterLoss && t.Side == models.SideBuy:
		return models.MarkerRevenge
	case t.Side == models.SideBuy:
		return models.MarkerFOMOBuy
	default:
		return models.MarkerHighStress
	}
}

// largestTradeMarkers flags the top buys and sells by absolute notional.
func largestTradeMarkers(ordered []models.Trade) []models.TradeMarker {
	pick := func(side models.Side, kind string) []models.TradeMarker {
		type sized struct {
			idx int
			abs float64
		}
		candidates := make([]sized, 0)
		for i := range ordered {
			if ordered[i].Side != side {
				continue
			}
			if n, ok := ordered[i].NotionalValue(); ok {
				candidates = append(candidates, sized{idx: i, abs: math.Abs(n)})
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].abs > candidates[j].abs })
		if len(candidates) > topTradeMarkers {
			candidates = candidates[:topTradeMarkers]
		}
		out := make([]models.TradeMarker, 0, len(candidates))
		for _, c := range candidates {
			t := &ordered[c.idx]
			out = append(out, models.TradeMarker{
				TS:       t.TS,
				Asset:    t.Asset,
				Side:     t.Side,
				Notional: c.abs,
				Kind:     kind,
			})
		}
		return out
	}

	markers := append(pick(models.SideBuy, "largest_buy"), pick(models.SideSell, "largest_sell")...)
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].TS.Before(markers[j].TS) })
	return markers
}
