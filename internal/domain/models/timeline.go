package models

import "time"

// TimelineBasis says which per-trade value the cumulative series runs over.
type TimelineBasis string

const (
	BasisPL       TimelineBasis = "pl"
	BasisNotional TimelineBasis = "notional"
)

// TimelinePoint is one step of the cumulative value series.
type TimelinePoint struct {
	TS              time.Time `json:"ts"`
	CumulativeValue float64   `json:"cumulativeValue"`
	TradeValue      float64   `json:"tradeValue"`
	Asset           string    `json:"asset,omitempty"`
	Side            Side      `json:"side,omitempty"`
}

// BiasMarker flags one of the worst-loss trades with a heuristic label.
type BiasMarker struct {
	TS    time.Time `json:"ts"`
	Asset string    `json:"asset,omitempty"`
	Side  Side      `json:"side,omitempty"`
	PL    float64   `json:"pl"`
	Label string    `json:"label"`
}

// Heuristic labels for the worst-loss trades.
const (
	MarkerPanicSell  = "Panic sell"
	MarkerRevenge    = "Revenge trade"
	MarkerFOMOBuy    = "FOMO buy"
	MarkerHighStress = "High-stress trade"
)

// TradeMarker flags a notably large buy or sell.
type TradeMarker struct {
	TS       time.Time `json:"ts"`
	Asset    string    `json:"asset,omitempty"`
	Side     Side      `json:"side,omitempty"`
	Notional float64   `json:"notional"`
	Kind     string    `json:"kind"` // "largest_buy" | "largest_sell"
}

// Timeline is the chart-ready projection of a trade sequence. Pure data
// shaping: no scores, no decisions.
type Timeline struct {
	Basis        TimelineBasis   `json:"basis"`
	Points       []TimelinePoint `json:"points"`
	BiasMarkers  []BiasMarker    `json:"biasMarkers"`
	TradeMarkers []TradeMarker   `json:"tradeMarkers"`
}
