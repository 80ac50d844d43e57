package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlan is an ordered template of exercises with target volume.
// UpdatedAt bumps on any structural change to the plan or its exercises.
type WorkoutPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Populated by the service layer for detail views; not persisted on the
	// plan document itself.
	PlanExercises []PlanExercise `bson:"-" json:"planExercises,omitempty"`
}

// PlanExercise is one (exercise, target sets, target reps, position) entry
// within a workout plan. OrderIndex is zero-based.
type PlanExercise struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutPlanID primitive.ObjectID `bson:"workoutPlanId" json:"workoutPlanId"`
	ExerciseID    primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	OrderIndex    int                `bson:"orderIndex" json:"orderIndex"`
	Sets          int                `bson:"sets" json:"sets"`
	TargetReps    int                `bson:"targetReps" json:"targetReps"`

	// Populated by the service layer for detail views.
	Exercise *Exercise `bson:"-" json:"exercise,omitempty"`
}
