package models

import "time"

// BiasResult bundles the three bias sub-analyses over one trade sequence.
type BiasResult struct {
	Overtrading  OvertradingBias  `json:"overtrading"`
	Revenge      RevengeBias      `json:"revenge"`
	LossAversion LossAversionBias `json:"lossAversion"`
}

// OvertradingBias scores day-level volume spikes against the trader's own
// baseline. The hourly fields summarize intraday pace over the whole span,
// empty hours included; AvgTradesPerHour is nil when nothing carried a
// timestamp.
type OvertradingBias struct {
	Score              int                   `json:"score"`
	Evidence           []OvertradingEvidence `json:"evidence"`
	AvgTradesPerHour   *float64              `json:"avgTradesPerHour,omitempty"`
	MaxTradesInOneHour int                   `json:"maxTradesInOneHour,omitempty"`
}

// OvertradingEvidence names one day whose trade count stood out.
type OvertradingEvidence struct {
	Day      string  `json:"day"`
	Count    int     `json:"count"`
	Baseline float64 `json:"baseline"`
}

// RevengeBias scores quick re-entries after realized losses.
// InsufficientData means no trade carried a usable P/L; the zero score is then
// "unmeasured", not "disciplined".
type RevengeBias struct {
	Score            int               `json:"score"`
	Evidence         []RevengeEvidence `json:"evidence"`
	InsufficientData bool              `json:"insufficientData"`
	TradeValueRatio  *float64          `json:"tradeValueRatio,omitempty"`
	MartingaleRatio  *float64          `json:"martingaleRatio,omitempty"`
}

// RevengeEvidence records one loss followed by a quick next trade.
type RevengeEvidence struct {
	LossAt     time.Time `json:"lossAt"`
	NextAt     time.Time `json:"nextAt"`
	GapSeconds float64   `json:"gapSeconds"`
	LossPL     float64   `json:"lossPl"`
	SizedUp    bool      `json:"sizedUp"`
}

// LossAversionBias scores the avgLoss/avgWin disposition ratio on fixed breakpoints.
type LossAversionBias struct {
	Score            int                   `json:"score"`
	Evidence         *LossAversionEvidence `json:"evidence"`
	InsufficientData bool                  `json:"insufficientData"`
}

// LossAversionEvidence carries the means behind the ratio so a caller can
// explain the score.
type LossAversionEvidence struct {
	AvgWin  float64 `json:"avgWin"`
	AvgLoss float64 `json:"avgLoss"`
	Ratio   float64 `json:"ratio"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
}

// UserMetrics are raw (non-normalized) behavioral statistics. Nil means the
// statistic was unmeasurable on this trade set, which callers must not collapse
// to zero.
type UserMetrics struct {
	TradeFrequency       float64  `json:"trade_frequency"`
	AvgTradeSize         float64  `json:"avg_trade_size"`
	TradeSizeVariability float64  `json:"trade_size_variability"`
	PctTradesAfterLoss   *float64 `json:"pct_trades_after_loss"`
	AvgHoldingPeriodDays *float64 `json:"avg_holding_period_days"`
	AvgTradesPerWeek     float64  `json:"avg_trades_per_week"`
	AvgTradesPerMonth    float64  `json:"avg_trades_per_month"`
}

// NormalizedMetrics are UserMetrics divided by fixed scale constants and
// clamped to [0,1]. Nil propagates from UserMetrics.
type NormalizedMetrics struct {
	TradeFrequency       float64  `json:"trade_frequency"`
	AvgTradeSize         float64  `json:"avg_trade_size"`
	TradeSizeVariability float64  `json:"trade_size_variability"`
	PctTradesAfterLoss   *float64 `json:"pct_trades_after_loss"`
	AvgHoldingPeriodDays *float64 `json:"avg_holding_period_days"`
}

// StyleVector is the 4-dimensional [0,1]-bounded behavioral summary used for
// similarity against reference profiles. Both construction paths emit this
// exact coordinate space.
type StyleVector struct {
	TradeFrequency  float64 `json:"trade_frequency"`
	HoldingPatience float64 `json:"holding_patience"`
	RiskReactivity  float64 `json:"risk_reactivity"`
	Consistency     float64 `json:"consistency"`
}

// VectorDimensions is the fixed dimension order for alignment scoring.
var VectorDimensions = []string{"trade_frequency", "holding_patience", "risk_reactivity", "consistency"}

// Dimension returns the named component, 0 for unknown names.
func (v StyleVector) Dimension(name string) float64 {
	switch name {
	case "trade_frequency":
		return v.TradeFrequency
	case "holding_patience":
		return v.HoldingPatience
	case "risk_reactivity":
		return v.RiskReactivity
	case "consistency":
		return v.Consistency
	default:
		return 0
	}
}

// VectorSource tags which construction path produced a style vector. The two
// paths are not numerically equivalent, so the tag travels with the vector.
type VectorSource string

const (
	SourcePortfolioMetrics VectorSource = "portfolio_metrics"
	SourceBiasProxy        VectorSource = "bias_proxy"
)

// TraitScores are 0-100 trait scores from an upstream scoring source, the
// preferred input for building a style vector.
type TraitScores struct {
	TradeFrequency  float64 `json:"trade_frequency"`
	HoldingPatience float64 `json:"holding_patience"`
	RiskReactivity  float64 `json:"risk_reactivity"`
	Consistency     float64 `json:"consistency"`
}

// AlignmentResult is the similarity between a user vector and a target vector.
type AlignmentResult struct {
	Score int            `json:"score"`
	Gaps  []AlignmentGap `json:"gaps"`
}

// AlignmentGap explains one dimension of the alignment score. Diff is signed
// as user minus target.
type AlignmentGap struct {
	Dimension   string  `json:"dimension"`
	UserValue   float64 `json:"userValue"`
	TargetValue float64 `json:"targetValue"`
	Diff        float64 `json:"diff"`
}

// ReferenceProfile is one named investor style vector callers can align against.
type ReferenceProfile struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Vector      StyleVector `json:"vector"`
}

// BehaviorReport is the full analysis payload for one trade sequence.
type BehaviorReport struct {
	Biases       BiasResult        `json:"biases"`
	Metrics      UserMetrics       `json:"metrics"`
	Normalized   NormalizedMetrics `json:"normalized"`
	Vector       StyleVector       `json:"vector"`
	VectorSource VectorSource      `json:"vectorSource"`
	Alignment    *AlignmentResult  `json:"alignment,omitempty"`
	Profile      string            `json:"profile,omitempty"`
	Timeline     *Timeline         `json:"timeline,omitempty"`
	TradeCount   int               `json:"tradeCount"`
}
