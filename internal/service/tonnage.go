package service

import (
	"github.com/voqk/btm-server/internal/domain"
)

// EffectiveWeight returns the load counted toward tonnage for one set.
// Standard exercises count external load only. Bodyweight and assisted
// exercises add the lifter's body weight to the set's weight; for assisted
// exercises callers log a negative weight to subtract the assistance, and the
// sign is taken as-is. Unknown types fall open to Standard.
func EffectiveWeight(exerciseType domain.ExerciseType, weightLbs float64, bodyWeightLbs *float64) float64 {
	switch exerciseType {
	case domain.ExerciseTypeBodyweight, domain.ExerciseTypeAssisted:
		bw := 0.0
		if bodyWeightLbs != nil {
			bw = *bodyWeightLbs
		}
		return bw + weightLbs
	default:
		return weightLbs
	}
}

// Tonnage computes the total mechanical work for a session's current sets:
// the sum over sets of reps times effective weight. It is always a full
// resummation, never an incremental update, so the stored value cannot drift
// across many small edits.
func Tonnage(sets []domain.ExerciseSet, bodyWeightLbs *float64) float64 {
	var total float64
	for _, set := range sets {
		total += float64(set.Reps) * EffectiveWeight(set.ExerciseType, set.WeightLbs, bodyWeightLbs)
	}
	return total
}
