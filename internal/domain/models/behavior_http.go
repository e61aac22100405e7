package models

// Requests for behavior HTTP endpoints. Defined in domain for consistency and reuse.

type AnalysisRequest struct {
	Trades        []Trade      `json:"trades" validate:"required,min=1,max=100000"`
	TargetProfile string       `json:"target_profile"`
	TraitScores   *TraitScores `json:"trait_scores"`
	WithTimeline  bool         `json:"with_timeline" default:"true"`
}

type BiasRequest struct {
	Trades []Trade `json:"trades" validate:"required,min=1,max=100000"`
}

type MetricsRequest struct {
	Trades []Trade `json:"trades" validate:"required,min=1,max=100000"`
}

type TimelineRequest struct {
	Trades []Trade `json:"trades" validate:"required,min=1,max=100000"`
}

// AlignmentRequest accepts either an explicit user vector or a trade set to
// derive one from (bias-proxy path). Exactly one of Vector/Trades is required.
type AlignmentRequest struct {
	Vector        *StyleVector `json:"vector"`
	Trades        []Trade      `json:"trades" validate:"max=100000"`
	TargetProfile string       `json:"target_profile" validate:"required"`
}
