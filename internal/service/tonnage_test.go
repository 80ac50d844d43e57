package service

import (
	"testing"

	"github.com/voqk/btm-server/internal/domain"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestEffectiveWeight(t *testing.T) {
	bw := floatPtr(180)

	tests := []struct {
		name          string
		exerciseType  domain.ExerciseType
		weightLbs     float64
		bodyWeightLbs *float64
		want          float64
	}{
		{"standard counts external load only", domain.ExerciseTypeStandard, 135, bw, 135},
		{"standard ignores missing body weight", domain.ExerciseTypeStandard, 135, nil, 135},
		{"bodyweight adds body weight", domain.ExerciseTypeBodyweight, 0, bw, 180},
		{"bodyweight with added load", domain.ExerciseTypeBodyweight, 25, bw, 205},
		{"bodyweight without body weight counts load only", domain.ExerciseTypeBodyweight, 25, nil, 25},
		{"assisted subtracts assistance via negative weight", domain.ExerciseTypeAssisted, -50, bw, 130},
		{"assisted without body weight", domain.ExerciseTypeAssisted, -50, nil, -50},
		{"unknown type treated as standard", domain.ExerciseType("cardio"), 95, bw, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveWeight(tt.exerciseType, tt.weightLbs, tt.bodyWeightLbs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTonnage(t *testing.T) {
	bw := floatPtr(180)

	t.Run("empty session is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Tonnage(nil, bw))
	})

	t.Run("sums reps times effective weight across mixed types", func(t *testing.T) {
		sets := []domain.ExerciseSet{
			{ExerciseType: domain.ExerciseTypeStandard, Reps: 8, WeightLbs: 135},    // 1080
			{ExerciseType: domain.ExerciseTypeBodyweight, Reps: 5, WeightLbs: 0},    // 900
			{ExerciseType: domain.ExerciseTypeAssisted, Reps: 10, WeightLbs: -60},   // 1200
		}
		assert.Equal(t, 1080.0+900.0+1200.0, Tonnage(sets, bw))
	})

	t.Run("body weight change moves bodyweight and assisted sets only", func(t *testing.T) {
		sets := []domain.ExerciseSet{
			{ExerciseType: domain.ExerciseTypeStandard, Reps: 8, WeightLbs: 135},
			{ExerciseType: domain.ExerciseTypeBodyweight, Reps: 5, WeightLbs: 0},
		}
		assert.Equal(t, 1080.0+900.0, Tonnage(sets, floatPtr(180)))
		assert.Equal(t, 1080.0+875.0, Tonnage(sets, floatPtr(175)))
		assert.Equal(t, 1080.0, Tonnage(sets, nil))
	})
}
