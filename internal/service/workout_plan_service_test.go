package service

import (
	"context"
	"testing"

	"github.com/voqk/btm-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planTestDeps struct {
	service      WorkoutPlanService
	planRepo     *memPlanRepo
	exerciseRepo *memExerciseRepo
	sessionRepo  *memSessionRepo
}

func newPlanTestDeps() planTestDeps {
	planRepo := newMemPlanRepo()
	exerciseRepo := newMemExerciseRepo()
	sessionRepo := newMemSessionRepo()
	return planTestDeps{
		service:      NewWorkoutPlanService(planRepo, exerciseRepo, sessionRepo, passthroughTxRunner{}),
		planRepo:     planRepo,
		exerciseRepo: exerciseRepo,
		sessionRepo:  sessionRepo,
	}
}

func (d planTestDeps) mustAddExercise(t *testing.T, userID primitive.ObjectID, name string) *domain.Exercise {
	t.Helper()
	exercise := &domain.Exercise{UserID: userID, Name: name, ExerciseType: domain.ExerciseTypeStandard}
	id, err := d.exerciseRepo.Create(context.Background(), exercise)
	require.NoError(t, err)
	exercise.ID = id
	return exercise
}

func TestPlanCreate(t *testing.T) {
	deps := newPlanTestDeps()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := deps.service.Create(ctx, userID, " Push Day ")
	require.NoError(t, err)
	assert.Equal(t, "Push Day", plan.Name)
	assert.False(t, plan.ID.IsZero())

	_, err = deps.service.Create(ctx, userID, "Push Day")
	assert.ErrorIs(t, err, ErrPlanNameTaken)

	_, err = deps.service.Create(ctx, userID, "  ")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = deps.service.Create(ctx, primitive.NewObjectID(), "Push Day")
	assert.NoError(t, err)
}

func TestPlanRename(t *testing.T) {
	deps := newPlanTestDeps()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := deps.service.Create(ctx, userID, "Push Day")
	require.NoError(t, err)
	_, err = deps.service.Create(ctx, userID, "Pull Day")
	require.NoError(t, err)

	require.NoError(t, deps.service.Rename(ctx, plan.ID, userID, "Upper Body"))

	got, err := deps.service.Get(ctx, plan.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "Upper Body", got.Name)

	assert.ErrorIs(t, deps.service.Rename(ctx, plan.ID, userID, "Pull Day"), ErrPlanNameTaken)
	assert.ErrorIs(t, deps.service.Rename(ctx, primitive.NewObjectID(), userID, "X"), ErrPlanNotFound)
	assert.ErrorIs(t, deps.service.Rename(ctx, plan.ID, primitive.NewObjectID(), "X"), ErrPlanNotFound)
}

func TestPlanAddExercise_AppendsAtEnd(t *testing.T) {
	deps := newPlanTestDeps()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := deps.service.Create(ctx, userID, "Push Day")
	require.NoError(t, err)
	bench := deps.mustAddExercise(t, userID, "Bench Press")
	ohp := deps.mustAddExercise(t, userID, "Overhead Press")
	dips := deps.mustAddExercise(t, userID, "Dips")

	first, err := deps.service.AddExercise(ctx, plan.ID, userID, bench.ID, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, first.OrderIndex)
	assert.Equal(t, "Bench Press", first.Exercise.Name)

	second, err := deps.service.AddExercise(ctx, plan.ID, userID, ohp.ID, 3, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, second.OrderIndex)

	// Removing a row leaves a gap; the next append still lands past the max.
	require.NoError(t, deps.service.RemoveExercise(ctx, second.ID, userID))

	third, err := deps.service.AddExercise(ctx, plan.ID, userID, dips.ID, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, third.OrderIndex)

	t.Run("validates targets", func(t *testing.T) {
		_, err := deps.service.AddExercise(ctx, plan.ID, userID, bench.ID, 0, 5)
		assert.ErrorIs(t, err, ErrValidationFailed)
		_, err = deps.service.AddExercise(ctx, plan.ID, userID, bench.ID, 3, 0)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("unknown exercise", func(t *testing.T) {
		_, err := deps.service.AddExercise(ctx, plan.ID, userID, primitive.NewObjectID(), 3, 5)
		assert.ErrorIs(t, err, ErrExerciseNotFound)
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, err := deps.service.AddExercise(ctx, primitive.NewObjectID(), userID, bench.ID, 3, 5)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestPlanUpdateExercise(t *testing.T) {
	deps := newPlanTestDeps()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := deps.service.Create(ctx, userID, "Push Day")
	require.NoError(t, err)
	bench := deps.mustAddExercise(t, userID, "Bench Press")

	pe, err := deps.service.AddExercise(ctx, plan.ID, userID, bench.ID, 3, 5)
	require.NoError(t, err)

	require.NoError(t, deps.service.UpdateExercise(ctx, pe.ID, userID, 5, 3))

	got, err := deps.service.Get(ctx, plan.ID, userID)
	require.NoError(t, err)
	require.Len(t, got.PlanExercises, 1)
	assert.Equal(t, 5, got.PlanExercises[0].Sets)
	assert.Equal(t, 3, got.PlanExercises[0].TargetReps)

	assert.ErrorIs(t, deps.service.UpdateExercise(ctx, pe.ID, userID, 0, 3), ErrValidationFailed)

	// Rows in another user's plan collapse to not-found.
	assert.ErrorIs(t, deps.service.UpdateExercise(ctx, pe.ID, primitive.NewObjectID(), 5, 3), ErrPlanExerciseNotFound)
}

func TestReorder_AssignsListedPositions(t *testing.T) {
	deps := newPlanTestDeps()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := deps.service.Create(ctx, userID, "Push Day")
	require.NoError(t, err)

	var peIDs []primitive.ObjectID
	for _, name := range []string{"Bench Press", "Overhead Press", "Dips"} {
		exercise := deps.mustAddExercise(t, userID, name)
		pe, err := deps.service.AddExercise(ctx, plan.ID, userID, exercise.ID, 3, 8)
		require.NoError(t, err)
		peIDs = append(peIDs, pe.ID)
	}

	// Full reversal.
	require.NoError(t, deps.service.Reorder(ctx, plan.ID, userID, []primitive.ObjectID{peIDs[2], peIDs[1], peIDs[0]}))

	got, err := deps.service.Get(ctx, plan.ID, userID)
	require.NoError(t, err)
	require.Len(t, got.PlanExercises, 3)
	assert.Equal(t, peIDs[2], got.PlanExercises[0].ID)
	assert.Equal(t, peIDs[1], got.PlanExercises[1].ID)
	assert.Equal(t, peIDs[0], got.PlanExercises[2].ID)

	t.Run("ignores ids outside the plan", func(t *testing.T) {
		err := deps.service.Reorder(ctx, plan.ID, userID, []primitive.ObjectID{primitive.NewObjectID(), peIDs[0], peIDs[1], peIDs[2]})
		require.NoError(t, err)

		got, err := deps.service.Get(ctx, plan.ID, userID)
		require.NoError(t, err)
		// The foreign id still consumed position 0, so the plan's own rows
		// received positions 1..3.
		assert.Equal(t, 1, got.PlanExercises[0].OrderIndex)
		assert.Equal(t, peIDs[0], got.PlanExercises[0].ID)
	})

	t.Run("unknown plan", func(t *testing.T) {
		err := deps.service.Reorder(ctx, primitive.NewObjectID(), userID, peIDs)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestReorder_PartialSequenceLeavesOthersUntouched(t *testing.T) {
	deps := newPlanTestDeps()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := deps.service.Create(ctx, userID, "Push Day")
	require.NoError(t, err)

	var peIDs []primitive.ObjectID
	for _, name := range []string{"Bench Press", "Overhead Press", "Dips"} {
		exercise := deps.mustAddExercise(t, userID, name)
		pe, err := deps.service.AddExercise(ctx, plan.ID, userID, exercise.ID, 3, 8)
		require.NoError(t, err)
		peIDs = append(peIDs, pe.ID)
	}

	// Only two of three rows listed: they take positions 0 and 1, the
	// unmentioned middle row keeps its old index 1. The resulting duplicate
	// index is the documented cost of supplying an incomplete sequence.
	require.NoError(t, deps.service.Reorder(ctx, plan.ID, userID, []primitive.ObjectID{peIDs[2], peIDs[0]}))

	indexByID := make(map[primitive.ObjectID]int)
	got, err := deps.service.Get(ctx, plan.ID, userID)
	require.NoError(t, err)
	for _, pe := range got.PlanExercises {
		indexByID[pe.ID] = pe.OrderIndex
	}
	assert.Equal(t, 0, indexByID[peIDs[2]])
	assert.Equal(t, 1, indexByID[peIDs[0]])
	assert.Equal(t, 1, indexByID[peIDs[1]])
}

func TestPlanDelete_SessionsSurviveWithSnapshotName(t *testing.T) {
	deps := newPlanTestDeps()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := deps.service.Create(ctx, userID, "Push Day")
	require.NoError(t, err)
	bench := deps.mustAddExercise(t, userID, "Bench Press")
	_, err = deps.service.AddExercise(ctx, plan.ID, userID, bench.ID, 3, 5)
	require.NoError(t, err)

	session := &domain.WorkoutSession{
		UserID:          userID,
		WorkoutPlanID:   &plan.ID,
		WorkoutPlanName: plan.Name,
	}
	sessionID, err := deps.sessionRepo.Create(ctx, session)
	require.NoError(t, err)

	require.NoError(t, deps.service.Delete(ctx, plan.ID, userID))

	_, err = deps.service.Get(ctx, plan.ID, userID)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	pes, err := deps.planRepo.GetPlanExercises(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, pes)

	survivor, err := deps.sessionRepo.GetByID(ctx, sessionID, userID)
	require.NoError(t, err)
	assert.Nil(t, survivor.WorkoutPlanID)
	assert.Equal(t, "Push Day", survivor.WorkoutPlanName)
}
