package profiles

import (
	"context"
	"fmt"

	"TradeMirror/internal/domain/models"
)

// Built-in reference profiles. These ship with the service so alignment works
// with no remote profile service configured.
var builtin = []models.ReferenceProfile{
	{
		Name:        "patient_value",
		Description: "Infrequent, large, long-held positions; low reactivity",
		Vector:      models.StyleVector{TradeFrequency: 0.05, HoldingPatience: 0.95, RiskReactivity: 0.05, Consistency: 0.9},
	},
	{
		Name:        "steady_accumulator",
		Description: "Regular periodic buying, rarely sells",
		Vector:      models.StyleVector{TradeFrequency: 0.15, HoldingPatience: 0.85, RiskReactivity: 0.1, Consistency: 0.95},
	},
	{
		Name:        "disciplined_swing",
		Description: "Multi-day holds with consistent sizing",
		Vector:      models.StyleVector{TradeFrequency: 0.4, HoldingPatience: 0.55, RiskReactivity: 0.25, Consistency: 0.75},
	},
	{
		Name:        "active_scalper",
		Description: "High-frequency intraday trading, quick exits",
		Vector:      models.StyleVector{TradeFrequency: 0.9, HoldingPatience: 0.1, RiskReactivity: 0.6, Consistency: 0.5},
	},
}

// StaticSource serves the built-in reference profiles.
type StaticSource struct{}

func NewStaticSource() *StaticSource { return &StaticSource{} }

func (s *StaticSource) Profiles(_ context.Context) ([]models.ReferenceProfile, error) {
	out := make([]models.ReferenceProfile, len(builtin))
	copy(out, builtin)
	return out, nil
}

func (s *StaticSource) Vector(_ context.Context, name string) (models.StyleVector, error) {
	for _, p := range builtin {
		if p.Name == name {
			return p.Vector, nil
		}
	}
	return models.StyleVector{}, fmt.Errorf("unknown reference profile %q", name)
}
