package repository

import (
	"context"

	"github.com/voqk/btm-server/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound = RepositoryError("not found")
	// ErrConflict surfaces a storage-level uniqueness violation (a race the
	// service pre-checks missed), e.g. a duplicate name or a second active
	// session committed concurrently.
	ErrConflict = RepositoryError("conflict with existing record")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner executes fn inside one atomic storage transaction. Every write a
// repository performs with the context passed to fn joins that transaction;
// either all of them commit or none do.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository defines the interface for interacting with exercise data.
// All lookups carry the owning user's ID in the filter, so an exercise owned
// by another user is indistinguishable from a nonexistent one.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) // name ascending
	// NameExists reports whether the user already has an exercise with this
	// exact name. Pass primitive.NilObjectID as excludeID when not updating.
	NameExists(ctx context.Context, userID primitive.ObjectID, name string, excludeID primitive.ObjectID) (bool, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// WorkoutPlanRepository defines the interface for interacting with workout
// plans and their plan-exercise rows.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) // name ascending
	NameExists(ctx context.Context, userID primitive.ObjectID, name string, excludeID primitive.ObjectID) (bool, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	// Touch bumps the plan's updatedAt; called for structural changes to the
	// plan's exercise list.
	Touch(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddPlanExercise(ctx context.Context, pe *domain.PlanExercise) (primitive.ObjectID, error)
	GetPlanExercise(ctx context.Context, id primitive.ObjectID) (*domain.PlanExercise, error)
	GetPlanExercises(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanExercise, error) // orderIndex ascending
	// MaxOrderIndex returns the highest orderIndex in the plan, or -1 when the
	// plan has no exercises.
	MaxOrderIndex(ctx context.Context, planID primitive.ObjectID) (int, error)
	UpdatePlanExercise(ctx context.Context, id primitive.ObjectID, sets, targetReps int) error
	SetOrderIndex(ctx context.Context, id primitive.ObjectID, orderIndex int) error
	RemovePlanExercise(ctx context.Context, id primitive.ObjectID) error
	RemovePlanExercisesByPlan(ctx context.Context, planID primitive.ObjectID) error
	// ExerciseInAnyPlan reports whether any plan of any user references the
	// exercise; used to gate exercise deletion.
	ExerciseInAnyPlan(ctx context.Context, exerciseID primitive.ObjectID) (bool, error)
}

// WorkoutSessionRepository defines the interface for interacting with workout
// sessions and their logged sets.
type WorkoutSessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutSession, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error) // startedAt descending
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutSession, error)
	HasActiveSession(ctx context.Context, userID primitive.ObjectID) (bool, error)
	SetBodyWeightAndTonnage(ctx context.Context, id primitive.ObjectID, bodyWeightLbs *float64, tonnageLbs float64) error
	SetTonnage(ctx context.Context, id primitive.ObjectID, tonnageLbs float64) error
	SetCompleted(ctx context.Context, id primitive.ObjectID) error
	// ClearPlanRefs bulk-nullifies the plan back-reference on every session
	// pointing at the plan; the denormalized plan name is left untouched.
	ClearPlanRefs(ctx context.Context, planID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddSet(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error)
	GetSet(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSet, error)
	GetSetsBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.ExerciseSet, error) // recordedAt ascending
	UpdateSet(ctx context.Context, id primitive.ObjectID, reps int, weightLbs float64) error
	RemoveSet(ctx context.Context, id primitive.ObjectID) error
	RemoveSetsBySession(ctx context.Context, sessionID primitive.ObjectID) error
	// DecrementSetNumbersAbove shifts down the set numbers of the session's
	// remaining sets for one exercise after a mid-sequence deletion.
	DecrementSetNumbersAbove(ctx context.Context, sessionID, exerciseID primitive.ObjectID, setNumber int) error
	// ExerciseHasSets reports whether any logged set references the exercise.
	ExerciseHasSets(ctx context.Context, exerciseID primitive.ObjectID) (bool, error)
}
