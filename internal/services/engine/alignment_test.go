package engine

import (
	"testing"

	"TradeMirror/internal/domain/models"
)

func TestAlignIdentical(t *testing.T) {
	v := models.StyleVector{TradeFrequency: 0.3, HoldingPatience: 0.8, RiskReactivity: 0.1, Consistency: 0.6}
	res := Align(v, v)
	if res.Score != 100 {
		t.Fatalf("score=%d, want 100", res.Score)
	}
	for _, g := range res.Gaps {
		if g.Diff != 0 {
			t.Fatalf("gap %s diff=%v, want 0", g.Dimension, g.Diff)
		}
	}
}

func TestAlignMaxDistance(t *testing.T) {
	user := models.StyleVector{}
	target := models.StyleVector{TradeFrequency: 1, HoldingPatience: 1, RiskReactivity: 1, Consistency: 1}
	res := Align(user, target)
	if res.Score != 0 {
		t.Fatalf("score=%d, want 0", res.Score)
	}
}

func TestAlignGapSigns(t *testing.T) {
	user := models.StyleVector{TradeFrequency: 0.9}
	target := models.StyleVector{TradeFrequency: 0.4}
	res := Align(user, target)
	if len(res.Gaps) != len(models.VectorDimensions) {
		t.Fatalf("gaps=%d, want %d", len(res.Gaps), len(models.VectorDimensions))
	}
	if res.Gaps[0].Dimension != "trade_frequency" {
		t.Fatalf("unexpected gap order: %+v", res.Gaps)
	}
	if diff := res.Gaps[0].Diff - 0.5; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("diff=%v, want user-target=0.5", res.Gaps[0].Diff)
	}
}

func TestAlignScoreSymmetric(t *testing.T) {
	a := models.StyleVector{TradeFrequency: 0.2, HoldingPatience: 0.7, RiskReactivity: 0.4, Consistency: 0.5}
	b := models.StyleVector{TradeFrequency: 0.6, HoldingPatience: 0.1, RiskReactivity: 0.9, Consistency: 0.3}
	if Align(a, b).Score != Align(b, a).Score {
		t.Fatalf("score should be symmetric")
	}
}
