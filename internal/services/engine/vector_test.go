package engine

import (
	"testing"
	"time"

	"TradeMirror/internal/domain/models"
)

func TestVectorFromScores(t *testing.T) {
	v := VectorFromScores(models.TraitScores{
		TradeFrequency:  50,
		HoldingPatience: 120, // clamps
		RiskReactivity:  -5,  // clamps
		Consistency:     70,
	})
	if v.TradeFrequency != 0.5 {
		t.Fatalf("trade_frequency=%v, want 0.5", v.TradeFrequency)
	}
	if v.HoldingPatience != 1 || v.RiskReactivity != 0 {
		t.Fatalf("expected clamped vector, got %+v", v)
	}
	if v.Consistency != 0.7 {
		t.Fatalf("consistency=%v, want 0.7", v.Consistency)
	}
}

func TestVectorFromTradesBounds(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	trades := make([]models.Trade, 0, 40)
	for i := 0; i < 40; i++ {
		trades = append(trades, models.Trade{TS: start.Add(time.Duration(i) * time.Minute), PL: models.Float64Ptr(-1)})
	}
	biases := DetectBiases(trades)
	v := VectorFromTrades(trades, biases)
	for _, dim := range models.VectorDimensions {
		val := v.Dimension(dim)
		if val < 0 || val > 1 {
			t.Fatalf("%s=%v out of [0,1]", dim, val)
		}
	}
}

func TestVectorFromTradesSingleDayConsistencyDefault(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{TS: start},
		{TS: start.Add(time.Minute)},
	}
	v := VectorFromTrades(trades, DetectBiases(trades))
	if v.Consistency != consistencyDefault {
		t.Fatalf("consistency=%v, want flat default %v", v.Consistency, consistencyDefault)
	}
}

func TestVectorFromTradesPatienceProxy(t *testing.T) {
	biases := models.BiasResult{
		Overtrading: models.OvertradingBias{Score: 50},
		Revenge:     models.RevengeBias{Score: 100},
	}
	v := VectorFromTrades(nil, biases)
	// 1 - 0.6*0.5 - 0.4*1.0 = 0.3
	if diff := v.HoldingPatience - 0.3; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("holding_patience=%v, want 0.3", v.HoldingPatience)
	}
	if v.RiskReactivity != 1 {
		t.Fatalf("risk_reactivity=%v, want 1", v.RiskReactivity)
	}
}
