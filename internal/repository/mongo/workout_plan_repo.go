package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/voqk/btm-server/internal/domain"
	"github.com/voqk/btm-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	workoutPlanCollectionName  = "workout_plans"
	planExerciseCollectionName = "plan_exercises"
)

// mongoWorkoutPlanRepository implements repository.WorkoutPlanRepository over
// the workout_plans and plan_exercises collections.
type mongoWorkoutPlanRepository struct {
	plans         *mongo.Collection
	planExercises *mongo.Collection
}

// NewMongoWorkoutPlanRepository creates a new WorkoutPlan repository backed by MongoDB.
func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{
		plans:         db.Collection(workoutPlanCollectionName),
		planExercises: db.Collection(planExerciseCollectionName),
	}
}

// Create inserts a new workout plan with both timestamps set to now.
func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.Name == "" || plan.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan name and user ID are required")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.plans.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a plan by ID, scoped to its owner.
func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	filter := bson.M{"_id": id, "userId": userID}

	err := r.plans.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByUserID retrieves all plans owned by a user, ordered by name.
func (r *mongoWorkoutPlanRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	var plans []domain.WorkoutPlan
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.plans.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// NameExists checks for an exact name match among the user's plans,
// optionally excluding one plan.
func (r *mongoWorkoutPlanRepository) NameExists(ctx context.Context, userID primitive.ObjectID, name string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"userId": userID, "name": name}
	if excludeID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.plans.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rename updates the plan's name and bumps updatedAt.
func (r *mongoWorkoutPlanRepository) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	update := bson.M{
		"$set": bson.M{
			"name":      name,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.plans.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Touch bumps the plan's updatedAt timestamp.
func (r *mongoWorkoutPlanRepository) Touch(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}}

	result, err := r.plans.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the plan document. Plan exercises are removed separately via
// RemovePlanExercisesByPlan inside the same transaction.
func (r *mongoWorkoutPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.plans.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddPlanExercise inserts a new plan-exercise row.
func (r *mongoWorkoutPlanRepository) AddPlanExercise(ctx context.Context, pe *domain.PlanExercise) (primitive.ObjectID, error) {
	if pe.WorkoutPlanID == primitive.NilObjectID || pe.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan exercise requires plan and exercise IDs")
	}

	pe.ID = primitive.NewObjectID()

	result, err := r.planExercises.InsertOne(ctx, pe)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan exercise ID")
	}
	return insertedID, nil
}

// GetPlanExercise retrieves one plan-exercise row by ID. Ownership is checked
// by the service through the owning plan.
func (r *mongoWorkoutPlanRepository) GetPlanExercise(ctx context.Context, id primitive.ObjectID) (*domain.PlanExercise, error) {
	var pe domain.PlanExercise

	err := r.planExercises.FindOne(ctx, bson.M{"_id": id}).Decode(&pe)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &pe, nil
}

// GetPlanExercises retrieves a plan's exercise rows ordered by orderIndex.
func (r *mongoWorkoutPlanRepository) GetPlanExercises(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanExercise, error) {
	var pes []domain.PlanExercise
	filter := bson.M{"workoutPlanId": planID}
	findOptions := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}})

	cursor, err := r.planExercises.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &pes); err != nil {
		return nil, err
	}
	return pes, nil
}

// MaxOrderIndex returns the highest orderIndex within the plan, or -1 for an
// empty plan.
func (r *mongoWorkoutPlanRepository) MaxOrderIndex(ctx context.Context, planID primitive.ObjectID) (int, error) {
	var pe domain.PlanExercise
	filter := bson.M{"workoutPlanId": planID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "orderIndex", Value: -1}})

	err := r.planExercises.FindOne(ctx, filter, findOptions).Decode(&pe)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return -1, nil
		}
		return 0, err
	}
	return pe.OrderIndex, nil
}

// UpdatePlanExercise updates target sets/reps only; orderIndex is untouched.
func (r *mongoWorkoutPlanRepository) UpdatePlanExercise(ctx context.Context, id primitive.ObjectID, sets, targetReps int) error {
	update := bson.M{
		"$set": bson.M{
			"sets":       sets,
			"targetReps": targetReps,
		},
	}

	result, err := r.planExercises.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetOrderIndex sets one plan-exercise row's position.
func (r *mongoWorkoutPlanRepository) SetOrderIndex(ctx context.Context, id primitive.ObjectID, orderIndex int) error {
	update := bson.M{"$set": bson.M{"orderIndex": orderIndex}}

	result, err := r.planExercises.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemovePlanExercise deletes one plan-exercise row.
func (r *mongoWorkoutPlanRepository) RemovePlanExercise(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.planExercises.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemovePlanExercisesByPlan deletes all of a plan's exercise rows.
func (r *mongoWorkoutPlanRepository) RemovePlanExercisesByPlan(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.planExercises.DeleteMany(ctx, bson.M{"workoutPlanId": planID})
	return err
}

// ExerciseInAnyPlan reports whether any plan-exercise row references the exercise.
func (r *mongoWorkoutPlanRepository) ExerciseInAnyPlan(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	count, err := r.planExercises.CountDocuments(ctx, bson.M{"exerciseId": exerciseID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureWorkoutPlanIndexes creates necessary indexes for the workout_plans
// and plan_exercises collections.
func EnsureWorkoutPlanIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(workoutPlanCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(planExerciseCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "workoutPlanId", Value: 1}, {Key: "orderIndex", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "exerciseId", Value: 1}},
		},
	})
	return err
}
