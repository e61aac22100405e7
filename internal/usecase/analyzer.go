package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeMirror/internal/domain/models"
	drepo "TradeMirror/internal/domain/repository"
	domsvc "TradeMirror/internal/domain/service"
	"TradeMirror/internal/services/engine"
)

// BehaviorAnalyzer orchestrates the scoring engine into full reports. The
// engine itself is pure; this layer adds profile lookup, metrics recording
// and the vector-source decision.
type BehaviorAnalyzer struct {
	profiles domsvc.ProfileSource
	metrics  drepo.Metrics
}

func NewBehaviorAnalyzer(profiles domsvc.ProfileSource, metrics drepo.Metrics) *BehaviorAnalyzer {
	return &BehaviorAnalyzer{profiles: profiles, metrics: metrics}
}

// AnalyzeInput carries everything one analysis run needs.
type AnalyzeInput struct {
	Trades        []models.Trade
	TargetProfile string
	TraitScores   *models.TraitScores
	WithTimeline  bool
}

// Analyze runs the full pipeline: biases, metrics, vector, optional alignment
// and optional timeline.
func (a *BehaviorAnalyzer) Analyze(ctx context.Context, in AnalyzeInput) (*models.BehaviorReport, error) {
	if len(in.Trades) == 0 {
		return nil, fmt.Errorf("no trades to analyze")
	}

	start := time.Now()

	biases := engine.DetectBiases(in.Trades)
	metrics := engine.ComputeUserMetrics(in.Trades)
	normalized := engine.NormalizeMetrics(metrics)

	var vector models.StyleVector
	source := models.SourceBiasProxy
	if in.TraitScores != nil {
		vector = engine.VectorFromScores(*in.TraitScores)
		source = models.SourcePortfolioMetrics
	} else {
		vector = engine.VectorFromTrades(in.Trades, biases)
	}

	report := &models.BehaviorReport{
		Biases:       biases,
		Metrics:      metrics,
		Normalized:   normalized,
		Vector:       vector,
		VectorSource: source,
		TradeCount:   len(in.Trades),
	}

	if in.TargetProfile != "" {
		target, err := a.profiles.Vector(ctx, in.TargetProfile)
		if err != nil {
			return nil, fmt.Errorf("target profile: %w", err)
		}
		al := engine.Align(vector, target)
		report.Alignment = &al
		report.Profile = in.TargetProfile
	}

	if in.WithTimeline {
		tl := engine.BuildTimeline(in.Trades)
		report.Timeline = &tl
	}

	a.record(biases)
	a.metrics.RecordAnalysis("full")
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())

	return report, nil
}

// AlignVector scores a caller-supplied vector against a named profile.
func (a *BehaviorAnalyzer) AlignVector(ctx context.Context, vector models.StyleVector, profile string) (*models.AlignmentResult, error) {
	target, err := a.profiles.Vector(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("target profile: %w", err)
	}
	res := engine.Align(vector, target)
	a.metrics.RecordAnalysis("alignment")
	return &res, nil
}

// AlignTrades derives a vector from trades (bias-proxy path) and aligns it.
func (a *BehaviorAnalyzer) AlignTrades(ctx context.Context, trades []models.Trade, profile string) (*models.AlignmentResult, error) {
	if len(trades) == 0 {
		return nil, fmt.Errorf("no trades to analyze")
	}
	biases := engine.DetectBiases(trades)
	vector := engine.VectorFromTrades(trades, biases)
	return a.AlignVector(ctx, vector, profile)
}

// Biases runs only the bias detectors.
func (a *BehaviorAnalyzer) Biases(trades []models.Trade) (models.BiasResult, error) {
	if len(trades) == 0 {
		return models.BiasResult{}, fmt.Errorf("no trades to analyze")
	}
	biases := engine.DetectBiases(trades)
	a.record(biases)
	a.metrics.RecordAnalysis("bias")
	return biases, nil
}

// Metrics runs only the raw and normalized metric computation.
func (a *BehaviorAnalyzer) Metrics(trades []models.Trade) (models.UserMetrics, models.NormalizedMetrics, error) {
	if len(trades) == 0 {
		return models.UserMetrics{}, models.NormalizedMetrics{}, fmt.Errorf("no trades to analyze")
	}
	m := engine.ComputeUserMetrics(trades)
	a.metrics.RecordAnalysis("metrics")
	return m, engine.NormalizeMetrics(m), nil
}

// Timeline builds only the chart projection.
func (a *BehaviorAnalyzer) Timeline(trades []models.Trade) (models.Timeline, error) {
	if len(trades) == 0 {
		return models.Timeline{}, fmt.Errorf("no trades to analyze")
	}
	a.metrics.RecordAnalysis("timeline")
	return engine.BuildTimeline(trades), nil
}

// Profiles lists the reference profiles available for alignment.
func (a *BehaviorAnalyzer) Profiles(ctx context.Context) ([]models.ReferenceProfile, error) {
	return a.profiles.Profiles(ctx)
}

func (a *BehaviorAnalyzer) record(b models.BiasResult) {
	a.metrics.RecordBiasScore("overtrading", float64(b.Overtrading.Score))
	a.metrics.RecordBiasScore("revenge", float64(b.Revenge.Score))
	a.metrics.RecordBiasScore("loss_aversion", float64(b.LossAversion.Score))
}
