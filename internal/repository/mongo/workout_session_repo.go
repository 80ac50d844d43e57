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
	workoutSessionCollectionName = "workout_sessions"
	exerciseSetCollectionName    = "exercise_sets"
)

// mongoWorkoutSessionRepository implements repository.WorkoutSessionRepository
// over the workout_sessions and exercise_sets collections.
type mongoWorkoutSessionRepository struct {
	sessions *mongo.Collection
	sets     *mongo.Collection
}

// NewMongoWorkoutSessionRepository creates a new WorkoutSession repository backed by MongoDB.
func NewMongoWorkoutSessionRepository(db *mongo.Database) repository.WorkoutSessionRepository {
	return &mongoWorkoutSessionRepository{
		sessions: db.Collection(workoutSessionCollectionName),
		sets:     db.Collection(exerciseSetCollectionName),
	}
}

// Create inserts a new session. The partial unique index on active sessions
// turns a concurrent second start into repository.ErrConflict.
func (r *mongoWorkoutSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session user ID is required")
	}

	session.ID = primitive.NewObjectID()
	session.Active = true
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	result, err := r.sessions.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a session by ID, scoped to its owner.
func (r *mongoWorkoutSessionRepository) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	filter := bson.M{"_id": id, "userId": userID}

	err := r.sessions.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByUserID retrieves a user's sessions, newest first, capped at limit.
func (r *mongoWorkoutSessionRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error) {
	var sessions []domain.WorkoutSession
	filter := bson.M{"userId": userID}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.sessions.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetActiveByUser retrieves the user's running session, if any.
func (r *mongoWorkoutSessionRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	filter := bson.M{"userId": userID, "active": true}

	err := r.sessions.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// HasActiveSession reports whether the user has an active session.
func (r *mongoWorkoutSessionRepository) HasActiveSession(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"userId": userID, "active": true}

	count, err := r.sessions.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetBodyWeightAndTonnage stores a new body weight together with the tonnage
// recomputed from it. A nil body weight clears the field.
func (r *mongoWorkoutSessionRepository) SetBodyWeightAndTonnage(ctx context.Context, id primitive.ObjectID, bodyWeightLbs *float64, tonnageLbs float64) error {
	var update bson.M
	if bodyWeightLbs == nil {
		update = bson.M{
			"$set":   bson.M{"tonnageLbs": tonnageLbs},
			"$unset": bson.M{"bodyWeightLbs": ""},
		}
	} else {
		update = bson.M{
			"$set": bson.M{
				"bodyWeightLbs": *bodyWeightLbs,
				"tonnageLbs":    tonnageLbs,
			},
		}
	}

	result, err := r.sessions.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetTonnage stores a freshly recomputed tonnage.
func (r *mongoWorkoutSessionRepository) SetTonnage(ctx context.Context, id primitive.ObjectID, tonnageLbs float64) error {
	update := bson.M{"$set": bson.M{"tonnageLbs": tonnageLbs}}

	result, err := r.sessions.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetCompleted stamps completedAt and drops the active marker, moving the
// session to its terminal state and out of the partial unique index.
func (r *mongoWorkoutSessionRepository) SetCompleted(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set":   bson.M{"completedAt": time.Now().UTC()},
		"$unset": bson.M{"active": ""},
	}

	result, err := r.sessions.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ClearPlanRefs bulk-removes the plan back-reference from every session
// pointing at the plan. The denormalized workoutPlanName stays as captured.
func (r *mongoWorkoutSessionRepository) ClearPlanRefs(ctx context.Context, planID primitive.ObjectID) error {
	filter := bson.M{"workoutPlanId": planID}
	update := bson.M{"$unset": bson.M{"workoutPlanId": ""}}

	_, err := r.sessions.UpdateMany(ctx, filter, update)
	return err
}

// Delete removes the session document. Its sets are removed separately via
// RemoveSetsBySession inside the same transaction.
func (r *mongoWorkoutSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddSet inserts a new logged set.
func (r *mongoWorkoutSessionRepository) AddSet(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error) {
	if set.WorkoutSessionID == primitive.NilObjectID || set.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("set requires session and exercise IDs")
	}

	set.ID = primitive.NewObjectID()
	if set.RecordedAt.IsZero() {
		set.RecordedAt = time.Now().UTC()
	}

	result, err := r.sets.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted set ID")
	}
	return insertedID, nil
}

// GetSet retrieves one logged set by ID. Ownership is checked by the service
// through the owning session.
func (r *mongoWorkoutSessionRepository) GetSet(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSet, error) {
	var set domain.ExerciseSet

	err := r.sets.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// GetSetsBySession retrieves a session's sets ordered by recordedAt.
func (r *mongoWorkoutSessionRepository) GetSetsBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	var sets []domain.ExerciseSet
	filter := bson.M{"workoutSessionId": sessionID}
	findOptions := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: 1}})

	cursor, err := r.sets.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// UpdateSet updates reps and weight only; setNumber and the exercise
// reference are immutable.
func (r *mongoWorkoutSessionRepository) UpdateSet(ctx context.Context, id primitive.ObjectID, reps int, weightLbs float64) error {
	update := bson.M{
		"$set": bson.M{
			"reps":      reps,
			"weightLbs": weightLbs,
		},
	}

	result, err := r.sets.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveSet deletes one logged set.
func (r *mongoWorkoutSessionRepository) RemoveSet(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.sets.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveSetsBySession deletes all of a session's sets.
func (r *mongoWorkoutSessionRepository) RemoveSetsBySession(ctx context.Context, sessionID primitive.ObjectID) error {
	_, err := r.sets.DeleteMany(ctx, bson.M{"workoutSessionId": sessionID})
	return err
}

// DecrementSetNumbersAbove shifts the set numbers above the deleted one down
// by 1 for the same exercise in the same session, restoring contiguity.
func (r *mongoWorkoutSessionRepository) DecrementSetNumbersAbove(ctx context.Context, sessionID, exerciseID primitive.ObjectID, setNumber int) error {
	filter := bson.M{
		"workoutSessionId": sessionID,
		"exerciseId":       exerciseID,
		"setNumber":        bson.M{"$gt": setNumber},
	}
	update := bson.M{"$inc": bson.M{"setNumber": -1}}

	_, err := r.sets.UpdateMany(ctx, filter, update)
	return err
}

// ExerciseHasSets reports whether any logged set references the exercise.
func (r *mongoWorkoutSessionRepository) ExerciseHasSets(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	count, err := r.sets.CountDocuments(ctx, bson.M{"exerciseId": exerciseID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureWorkoutSessionIndexes creates necessary indexes for the
// workout_sessions and exercise_sets collections.
func EnsureWorkoutSessionIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(workoutSessionCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// At most one active session per user. The active marker exists
			// on the document only while the session is running, so the
			// partial filter covers exactly those.
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "active", Value: true}}),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "workoutPlanId", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(exerciseSetCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "workoutSessionId", Value: 1}, {Key: "recordedAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "exerciseId", Value: 1}},
		},
	})
	return err
}
