package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseType controls how a logged set's effective weight is computed.
type ExerciseType string

const (
	ExerciseTypeStandard   ExerciseType = "standard"   // external load only
	ExerciseTypeBodyweight ExerciseType = "bodyweight" // body weight + external load
	ExerciseTypeAssisted   ExerciseType = "assisted"   // body weight + signed load (negative = assistance)
)

// IsValid reports whether t is one of the known exercise types.
func (t ExerciseType) IsValid() bool {
	switch t {
	case ExerciseTypeStandard, ExerciseTypeBodyweight, ExerciseTypeAssisted:
		return true
	}
	return false
}

// Exercise is a user-defined exercise in the catalog. Names are unique per
// user (case-sensitive, compared after trimming).
type Exercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Name         string             `bson:"name" json:"name"`
	ExerciseType ExerciseType       `bson:"exerciseType" json:"exerciseType"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
