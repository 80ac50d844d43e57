package service

import (
	"context"
	"errors"
	"strings"

	"github.com/voqk/btm-server/internal/domain"
	"github.com/voqk/btm-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound         = errors.New("workout plan not found")
	ErrPlanNameTaken        = errors.New("a workout plan with this name already exists")
	ErrPlanExerciseNotFound = errors.New("plan exercise not found")
)

// WorkoutPlanService manages workout plans and their ordered exercise lists.
type WorkoutPlanService interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	Get(ctx context.Context, planID, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
	Create(ctx context.Context, userID primitive.ObjectID, name string) (*domain.WorkoutPlan, error)
	Rename(ctx context.Context, planID, userID primitive.ObjectID, name string) error
	AddExercise(ctx context.Context, planID, userID, exerciseID primitive.ObjectID, sets, targetReps int) (*domain.PlanExercise, error)
	UpdateExercise(ctx context.Context, planExerciseID, userID primitive.ObjectID, sets, targetReps int) error
	RemoveExercise(ctx context.Context, planExerciseID, userID primitive.ObjectID) error
	Reorder(ctx context.Context, planID, userID primitive.ObjectID, orderedPlanExerciseIDs []primitive.ObjectID) error
	Delete(ctx context.Context, planID, userID primitive.ObjectID) error
}

// workoutPlanService implements the WorkoutPlanService interface.
type workoutPlanService struct {
	planRepo     repository.WorkoutPlanRepository
	exerciseRepo repository.ExerciseRepository
	sessionRepo  repository.WorkoutSessionRepository
	tx           repository.TxRunner
}

// NewWorkoutPlanService creates a new instance of workoutPlanService.
func NewWorkoutPlanService(
	planRepo repository.WorkoutPlanRepository,
	exerciseRepo repository.ExerciseRepository,
	sessionRepo repository.WorkoutSessionRepository,
	tx repository.TxRunner,
) WorkoutPlanService {
	return &workoutPlanService{
		planRepo:     planRepo,
		exerciseRepo: exerciseRepo,
		sessionRepo:  sessionRepo,
		tx:           tx,
	}
}

// attachExercises resolves the Exercise for each plan-exercise row.
func (s *workoutPlanService) attachExercises(ctx context.Context, pes []domain.PlanExercise) error {
	if len(pes) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(pes))
	for _, pe := range pes {
		ids = append(ids, pe.ExerciseID)
	}

	exercises, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[primitive.ObjectID]*domain.Exercise, len(exercises))
	for i := range exercises {
		byID[exercises[i].ID] = &exercises[i]
	}
	for i := range pes {
		pes[i].Exercise = byID[pes[i].ExerciseID]
	}
	return nil
}

// ListForUser returns the user's plans ordered by name, each with its
// exercise rows and their exercises attached.
func (s *workoutPlanService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	plans, err := s.planRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range plans {
		pes, err := s.planRepo.GetPlanExercises(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		if err := s.attachExercises(ctx, pes); err != nil {
			return nil, err
		}
		plans[i].PlanExercises = pes
	}
	return plans, nil
}

// Get returns a single plan with its exercise rows ordered by orderIndex.
func (s *workoutPlanService) Get(ctx context.Context, planID, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	pes, err := s.planRepo.GetPlanExercises(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	if err := s.attachExercises(ctx, pes); err != nil {
		return nil, err
	}
	plan.PlanExercises = pes
	return plan, nil
}

// Create adds a new plan, enforcing per-user name uniqueness.
func (s *workoutPlanService) Create(ctx context.Context, userID primitive.ObjectID, name string) (*domain.WorkoutPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidationFailed
	}

	taken, err := s.planRepo.NameExists(ctx, userID, name, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrPlanNameTaken
	}

	plan := &domain.WorkoutPlan{
		UserID: userID,
		Name:   name,
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// Rename updates the plan's name and bumps updatedAt.
func (s *workoutPlanService) Rename(ctx context.Context, planID, userID primitive.ObjectID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrValidationFailed
	}

	if _, err := s.planRepo.GetByID(ctx, planID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	taken, err := s.planRepo.NameExists(ctx, userID, name, planID)
	if err != nil {
		return err
	}
	if taken {
		return ErrPlanNameTaken
	}

	return s.planRepo.Rename(ctx, planID, name)
}

// AddExercise appends an exercise to the plan at (max orderIndex)+1, or 0 for
// an empty plan. This is always an append, never an insert.
func (s *workoutPlanService) AddExercise(ctx context.Context, planID, userID, exerciseID primitive.ObjectID, sets, targetReps int) (*domain.PlanExercise, error) {
	if sets <= 0 || targetReps <= 0 {
		return nil, ErrValidationFailed
	}

	if _, err := s.planRepo.GetByID(ctx, planID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	var pe *domain.PlanExercise
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		maxOrder, err := s.planRepo.MaxOrderIndex(ctx, planID)
		if err != nil {
			return err
		}

		pe = &domain.PlanExercise{
			WorkoutPlanID: planID,
			ExerciseID:    exerciseID,
			OrderIndex:    maxOrder + 1,
			Sets:          sets,
			TargetReps:    targetReps,
		}

		peID, err := s.planRepo.AddPlanExercise(ctx, pe)
		if err != nil {
			return err
		}
		pe.ID = peID

		return s.planRepo.Touch(ctx, planID)
	})
	if err != nil {
		return nil, err
	}

	pe.Exercise = exercise
	return pe, nil
}

// getOwnedPlanExercise loads a plan-exercise row and verifies ownership
// transitively through its plan. A row in another user's plan is
// indistinguishable from a missing one.
func (s *workoutPlanService) getOwnedPlanExercise(ctx context.Context, planExerciseID, userID primitive.ObjectID) (*domain.PlanExercise, error) {
	pe, err := s.planRepo.GetPlanExercise(ctx, planExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanExerciseNotFound
		}
		return nil, err
	}

	if _, err := s.planRepo.GetByID(ctx, pe.WorkoutPlanID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanExerciseNotFound
		}
		return nil, err
	}
	return pe, nil
}

// UpdateExercise changes a plan-exercise row's target sets/reps only.
func (s *workoutPlanService) UpdateExercise(ctx context.Context, planExerciseID, userID primitive.ObjectID, sets, targetReps int) error {
	if sets <= 0 || targetReps <= 0 {
		return ErrValidationFailed
	}

	pe, err := s.getOwnedPlanExercise(ctx, planExerciseID, userID)
	if err != nil {
		return err
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.planRepo.UpdatePlanExercise(ctx, pe.ID, sets, targetReps); err != nil {
			return err
		}
		return s.planRepo.Touch(ctx, pe.WorkoutPlanID)
	})
}

// RemoveExercise deletes a plan-exercise row. Remaining rows keep their
// orderIndex values; gaps after removal are tolerated.
func (s *workoutPlanService) RemoveExercise(ctx context.Context, planExerciseID, userID primitive.ObjectID) error {
	pe, err := s.getOwnedPlanExercise(ctx, planExerciseID, userID)
	if err != nil {
		return err
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.planRepo.RemovePlanExercise(ctx, pe.ID); err != nil {
			return err
		}
		return s.planRepo.Touch(ctx, pe.WorkoutPlanID)
	})
}

// Reorder assigns each listed plan-exercise its position in the supplied
// sequence. IDs that do not belong to the plan are ignored, and rows not
// mentioned keep their old orderIndex — the caller is responsible for
// supplying the complete list to keep indexes contiguous.
func (s *workoutPlanService) Reorder(ctx context.Context, planID, userID primitive.ObjectID, orderedPlanExerciseIDs []primitive.ObjectID) error {
	if _, err := s.planRepo.GetByID(ctx, planID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		pes, err := s.planRepo.GetPlanExercises(ctx, planID)
		if err != nil {
			return err
		}

		inPlan := make(map[primitive.ObjectID]bool, len(pes))
		for _, pe := range pes {
			inPlan[pe.ID] = true
		}

		for i, id := range orderedPlanExerciseIDs {
			if !inPlan[id] {
				continue
			}
			if err := s.planRepo.SetOrderIndex(ctx, id, i); err != nil {
				return err
			}
		}

		return s.planRepo.Touch(ctx, planID)
	})
}

// Delete removes a plan and its exercise rows. Sessions started from the plan
// survive: their back-reference is bulk-nullified first, while the plan name
// they captured at start stays.
func (s *workoutPlanService) Delete(ctx context.Context, planID, userID primitive.ObjectID) error {
	if _, err := s.planRepo.GetByID(ctx, planID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.ClearPlanRefs(ctx, planID); err != nil {
			return err
		}
		if err := s.planRepo.RemovePlanExercisesByPlan(ctx, planID); err != nil {
			return err
		}
		return s.planRepo.Delete(ctx, planID)
	})
}
