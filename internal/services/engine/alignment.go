package engine

import (
	"math"

	"TradeMirror/internal/domain/models"
)

// Align computes the similarity between a user style vector and a target
// reference vector: root-mean-square difference over the fixed dimension
// order, score = round((1-rms)*100). The score is symmetric; gap signs are
// directional (user minus target).
func Align(user, target models.StyleVector) models.AlignmentResult {
	gaps := make([]models.AlignmentGap, 0, len(models.VectorDimensions))
	sum2 := 0.0
	for _, dim := range models.VectorDimensions {
		u := user.Dimension(dim)
		t := target.Dimension(dim)
		d := u - t
		sum2 += d * d
		gaps = append(gaps, models.AlignmentGap{
			Dimension:   dim,
			UserValue:   u,
			TargetValue: t,
			Diff:        d,
		})
	}
	rms := Clamp01(math.Sqrt(sum2 / float64(len(models.VectorDimensions))))
	return models.AlignmentResult{
		Score: clampScore((1 - rms) * 100),
		Gaps:  gaps,
	}
}
