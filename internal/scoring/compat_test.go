package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kindredapp/kindred-backend/internal/config"
)

func ptr(f float64) *float64 { return &f }

func TestScore_WorkedExample(t *testing.T) {
	// Candidate: 3 shared interests, 10km away, age 30 against prefs 25-35/50km.
	// interest = 3/5 = 0.6, proximity = 1 - 10/50 = 0.8, age = 1 - 0/11 = 1.0
	// 0.4*0.6 + 0.4*0.8 + 0.2*1.0 = 0.76 -> 76
	got := Score(DefaultWeights(), ScoreInput{
		CommonInterests: 3,
		DistanceKm:      ptr(10),
		MaxDistanceKm:   50,
		CandidateAge:    30,
		MinAge:          25,
		MaxAge:          35,
	})
	assert.Equal(t, 76, got)
}

func TestScore_Bounds(t *testing.T) {
	cases := []ScoreInput{
		{CommonInterests: 0, DistanceKm: nil, MaxDistanceKm: 50, CandidateAge: 30, MinAge: 25, MaxAge: 35},
		{CommonInterests: 0, DistanceKm: ptr(500), MaxDistanceKm: 50, CandidateAge: 99, MinAge: 25, MaxAge: 35},
		{CommonInterests: 50, DistanceKm: ptr(0), MaxDistanceKm: 500, CandidateAge: 30, MinAge: 30, MaxAge: 30},
		{CommonInterests: 5, DistanceKm: ptr(1), MaxDistanceKm: 1, CandidateAge: 18, MinAge: 18, MaxAge: 18},
	}
	for _, in := range cases {
		got := Score(DefaultWeights(), in)
		assert.GreaterOrEqual(t, got, 0, "input %+v", in)
		assert.LessOrEqual(t, got, 100, "input %+v", in)
	}
}

func TestScore_InterestOverlapCapped(t *testing.T) {
	base := ScoreInput{DistanceKm: ptr(10), MaxDistanceKm: 50, CandidateAge: 30, MinAge: 25, MaxAge: 35}

	atCap := base
	atCap.CommonInterests = 5
	beyond := base
	beyond.CommonInterests = 25

	assert.Equal(t, Score(DefaultWeights(), atCap), Score(DefaultWeights(), beyond))
}

func TestScore_UnknownDistanceScoresFullProximity(t *testing.T) {
	unknown := ScoreInput{CommonInterests: 2, DistanceKm: nil, MaxDistanceKm: 50, CandidateAge: 30, MinAge: 25, MaxAge: 35}
	zero := unknown
	zero.DistanceKm = ptr(0)

	assert.Equal(t, Score(DefaultWeights(), zero), Score(DefaultWeights(), unknown))
}

func TestScore_AgeFarOutsideRangeFloorsAtZero(t *testing.T) {
	// With only the age component weighted, a wildly off-range age yields 0.
	w := Weights{Interest: 0, Proximity: 0, Age: 1}
	got := Score(w, ScoreInput{CandidateAge: 80, MinAge: 25, MaxAge: 35, MaxDistanceKm: 50})
	assert.Equal(t, 0, got)
}

func TestWeightsFromConfig_FallbackOnDegenerateValues(t *testing.T) {
	cfg := &config.Config{}

	cfg.Score.InterestWeight = -1
	cfg.Score.ProximityWeight = 0.5
	cfg.Score.AgeWeight = 0.5
	assert.Equal(t, DefaultWeights(), WeightsFromConfig(cfg))

	cfg.Score.InterestWeight = 0
	cfg.Score.ProximityWeight = 0
	cfg.Score.AgeWeight = 0
	assert.Equal(t, DefaultWeights(), WeightsFromConfig(cfg))

	cfg.Score.InterestWeight = 1
	cfg.Score.ProximityWeight = 2
	cfg.Score.AgeWeight = 3
	assert.Equal(t, Weights{Interest: 1, Proximity: 2, Age: 3}, WeightsFromConfig(cfg))
}
