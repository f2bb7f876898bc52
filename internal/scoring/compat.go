package scoring

import (
	"math"

	"github.com/kindredapp/kindred-backend/internal/config"
)

// interestCap is the shared-interest count at which the interest sub-score
// saturates; overlap beyond it contributes nothing extra.
const interestCap = 5

// Weights combines the three compatibility sub-scores. The defaults are
// configuration, not magic: deployments tune them via SCORE_WEIGHT_* envs.
type Weights struct {
	Interest  float64
	Proximity float64
	Age       float64
}

// DefaultWeights returns the documented default split.
func DefaultWeights() Weights {
	return Weights{Interest: 0.4, Proximity: 0.4, Age: 0.2}
}

// WeightsFromConfig builds Weights from app config, falling back to the
// defaults when the configured values don't form a usable combination.
func WeightsFromConfig(cfg *config.Config) Weights {
	w := Weights{
		Interest:  cfg.Score.InterestWeight,
		Proximity: cfg.Score.ProximityWeight,
		Age:       cfg.Score.AgeWeight,
	}
	if w.Interest < 0 || w.Proximity < 0 || w.Age < 0 || w.Interest+w.Proximity+w.Age <= 0 {
		return DefaultWeights()
	}
	return w
}

// ScoreInput carries everything the scorer needs about a single
// requester/candidate pairing.
type ScoreInput struct {
	CommonInterests int
	DistanceKm      *float64 // nil when either side lacks a location
	MaxDistanceKm   int
	CandidateAge    int
	MinAge          int // requester preference bounds, inclusive
	MaxAge          int
}

// Score produces the bounded [0,100] compatibility summary.
//
// Sub-scores, each normalized to [0,1]:
//   - interest overlap: min(common/5, 1)
//   - proximity: 1 when distance is unknown or zero, else max(0, 1 - d/maxDistance)
//   - age closeness: 1 - |age - midpoint| / (maxAge - minAge + 1), floored at 0
func Score(w Weights, in ScoreInput) int {
	interest := math.Min(float64(in.CommonInterests)/interestCap, 1.0)

	proximity := 1.0
	if in.DistanceKm != nil && *in.DistanceKm > 0 && in.MaxDistanceKm > 0 {
		proximity = math.Max(0, 1-*in.DistanceKm/float64(in.MaxDistanceKm))
	}

	mid := float64(in.MinAge+in.MaxAge) / 2
	span := float64(in.MaxAge-in.MinAge+1)
	age := 1 - math.Abs(float64(in.CandidateAge)-mid)/span
	if age < 0 {
		age = 0
	}

	total := w.Interest + w.Proximity + w.Age
	weighted := (w.Interest*interest + w.Proximity*proximity + w.Age*age) / total

	return int(math.Round(100 * weighted))
}
