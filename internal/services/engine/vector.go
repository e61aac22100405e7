package engine

import (
	"TradeMirror/internal/domain/models"
)

// Vector-builder constants. Both paths must land in the same [0,1]^4 space so
// either output is comparable to the same reference profiles.
const (
	patienceOvertradingWeight = 0.6
	patienceRevengeWeight     = 0.4
	consistencyStdDevScale    = 10.0
	consistencyDefault        = 0.7
)

// VectorFromScores builds a style vector from 0-100 trait scores produced by
// an upstream portfolio scoring source. This is the preferred path.
func VectorFromScores(s models.TraitScores) models.StyleVector {
	return models.StyleVector{
		TradeFrequency:  Clamp01(s.TradeFrequency / 100),
		HoldingPatience: Clamp01(s.HoldingPatience / 100),
		RiskReactivity:  Clamp01(s.RiskReactivity / 100),
		Consistency:     Clamp01(s.Consistency / 100),
	}
}

// VectorFromTrades builds a style vector from a trade sequence and its bias
// scores. holding_patience here is a proxy derived from overtrading and
// revenge scores: there is no direct holding-time signal on this path.
func VectorFromTrades(trades []models.Trade, biases models.BiasResult) models.StyleVector {
	counts := dayCounts(trades)
	perDay := countsSlice(counts)

	ot := float64(biases.Overtrading.Score) / 100
	rev := float64(biases.Revenge.Score) / 100

	consistency := consistencyDefault
	if len(perDay) >= 2 {
		consistency = Clamp01(1 - PopStdDev(perDay)/consistencyStdDevScale)
	}

	return models.StyleVector{
		TradeFrequency:  Clamp01(Mean(perDay) / scaleTradeFrequency),
		HoldingPatience: Clamp01(1 - patienceOvertradingWeight*ot - patienceRevengeWeight*rev),
		RiskReactivity:  Clamp01(rev),
		Consistency:     consistency,
	}
}
