package models

import (
	"math"
	"time"
)

// Side is the direction of an executed trade. Empty means unknown:
// upstream sources do not always report it.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one canonical executed trade. Numeric fields are pointers because
// source files routinely omit them; nil means "not reported", which is distinct
// from zero for every downstream computation.
type Trade struct {
	TradeID    string    `json:"tradeId,omitempty"`
	TS         time.Time `json:"ts"`
	Side       Side      `json:"side,omitempty"`
	Asset      string    `json:"asset,omitempty"`
	Qty        *float64  `json:"qty"`
	Notional   *float64  `json:"notional"`
	PL         *float64  `json:"pl"`
	EntryPrice *float64  `json:"entryPrice"`
}

// HasTS reports whether the timestamp parsed upstream.
func (t *Trade) HasTS() bool {
	return !t.TS.IsZero()
}

// RealizedPL returns the realized profit/loss and whether it is a usable
// finite number.
func (t *Trade) RealizedPL() (float64, bool) {
	return finite(t.PL)
}

// NotionalValue returns the trade's cash value and whether it is finite.
func (t *Trade) NotionalValue() (float64, bool) {
	return finite(t.Notional)
}

// Quantity returns the traded quantity and whether it is finite and positive.
func (t *Trade) Quantity() (float64, bool) {
	v, ok := finite(t.Qty)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func finite(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Float64Ptr is a convenience for building trades in callers and tests.
func Float64Ptr(v float64) *float64 { return &v }
