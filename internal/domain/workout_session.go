package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSession is one timed workout. A session with a nil CompletedAt is
// active; at most one session per user may be active at a time.
//
// WorkoutPlanID is a weak reference: deleting the plan clears it but the
// denormalized WorkoutPlanName (captured at start) survives. Active is a
// marker field present on the document only while the session is running;
// the partial unique index backing the single-active-session invariant is
// built on it (partial indexes cannot match on an absent field). Completing
// a session unsets it together with stamping CompletedAt.
type WorkoutSession struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	WorkoutPlanID   *primitive.ObjectID `bson:"workoutPlanId,omitempty" json:"workoutPlanId,omitempty"`
	WorkoutPlanName string              `bson:"workoutPlanName" json:"workoutPlanName"`
	BodyWeightLbs   *float64            `bson:"bodyWeightLbs,omitempty" json:"bodyWeightLbs,omitempty"`
	StartedAt       time.Time           `bson:"startedAt" json:"startedAt"`
	CompletedAt     *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	TonnageLbs      float64             `bson:"tonnageLbs" json:"tonnageLbs"`
	Active          bool                `bson:"active,omitempty" json:"-"`

	// Populated by the service layer for detail views; not persisted on the
	// session document.
	Sets []ExerciseSet `bson:"-" json:"sets,omitempty"`
	Plan *WorkoutPlan  `bson:"-" json:"plan,omitempty"`
}

// IsCompleted reports whether the session has reached its terminal state.
func (s *WorkoutSession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// ExerciseSet is one logged set. ExerciseName and ExerciseType are snapshots
// taken when the set is logged; later edits to the exercise do not change
// them. SetNumber is 1-based and contiguous per exercise within the session.
type ExerciseSet struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutSessionID primitive.ObjectID `bson:"workoutSessionId" json:"workoutSessionId"`
	ExerciseID       primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	ExerciseName     string             `bson:"exerciseName" json:"exerciseName"`
	ExerciseType     ExerciseType       `bson:"exerciseType" json:"exerciseType"`
	SetNumber        int                `bson:"setNumber" json:"setNumber"`
	Reps             int                `bson:"reps" json:"reps"`
	WeightLbs        float64            `bson:"weightLbs" json:"weightLbs"`
	RecordedAt       time.Time          `bson:"recordedAt" json:"recordedAt"`
}
